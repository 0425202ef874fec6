package prompt

import "context"

const (
	staticProviderName = "static"
	geminiProviderName = "gemini"
)

// Suggestion is one starter prompt offered to the studio page.
type Suggestion struct {
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	Provider string `json:"-"`
}

// Suggester produces starter prompts for a locale. Implementations must not
// return an error a user would have to see; degrade to simpler content
// instead.
type Suggester interface {
	Suggest(ctx context.Context, locale string, n int) ([]Suggestion, error)
}
