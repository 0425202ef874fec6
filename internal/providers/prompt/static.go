package prompt

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultSuggestionCount is returned when the caller does not ask for a
// specific number of suggestions.
const DefaultSuggestionCount = 3

// StaticSuggester serves curated starter prompts grouped by locale. It backs
// the suggestion endpoint on its own and acts as the standby for the
// Gemini-backed suggester.
type StaticSuggester struct {
	byLocale map[string][]Suggestion
}

type presetFile struct {
	Suggestions []presetEntry `yaml:"suggestions"`
}

type presetEntry struct {
	Locale string `yaml:"locale"`
	Title  string `yaml:"title"`
	Prompt string `yaml:"prompt"`
}

// NewStaticSuggester returns a suggester preloaded with the built-in presets.
func NewStaticSuggester() *StaticSuggester {
	return &StaticSuggester{byLocale: builtinSuggestions()}
}

// LoadPresets reads a YAML preset file and layers its entries over the
// built-ins, file entries first.
func LoadPresets(path string) (*StaticSuggester, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read presets: %w", err)
	}
	var file presetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("prompt: parse presets: %w", err)
	}

	s := NewStaticSuggester()
	for i := len(file.Suggestions) - 1; i >= 0; i-- {
		entry := file.Suggestions[i]
		text := strings.TrimSpace(entry.Prompt)
		if text == "" {
			continue
		}
		locale := strings.ToLower(strings.TrimSpace(entry.Locale))
		if locale == "" {
			locale = "en"
		}
		suggestion := Suggestion{
			Title:  strings.TrimSpace(entry.Title),
			Prompt: text,
		}
		s.byLocale[locale] = append([]Suggestion{suggestion}, s.byLocale[locale]...)
	}
	return s, nil
}

// Suggest returns up to n suggestions for the locale, falling back to the
// English set when the locale has no presets. Titles are title-cased for the
// locale's casing rules.
func (s *StaticSuggester) Suggest(ctx context.Context, locale string, n int) ([]Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultSuggestionCount
	}

	key := strings.ToLower(strings.TrimSpace(locale))
	pool := s.byLocale[key]
	if len(pool) == 0 {
		pool = s.byLocale["en"]
	}
	if len(pool) == 0 {
		return nil, nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	caser := cases.Title(language.Make(key))
	order := rand.Perm(len(pool))
	out := make([]Suggestion, 0, n)
	for _, idx := range order[:n] {
		item := pool[idx]
		title := item.Title
		if title == "" {
			title = firstWords(item.Prompt, 4)
		}
		out = append(out, Suggestion{
			Title:    caser.String(title),
			Prompt:   item.Prompt,
			Provider: staticProviderName,
		})
	}
	return out, nil
}

func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func builtinSuggestions() map[string][]Suggestion {
	return map[string][]Suggestion{
		"en": {
			{Title: "neon alley", Prompt: "A rain-soaked neon alley at night, reflections on wet asphalt, cinematic lighting"},
			{Title: "paper mountains", Prompt: "Folded paper mountains under a pastel sunrise, soft studio light, minimal composition"},
			{Title: "tiny greenhouse", Prompt: "A tiny glass greenhouse on a floating island, volumetric morning light, lush plants"},
			{Title: "retro diner", Prompt: "Interior of a 1950s roadside diner at dusk, chrome details, warm tungsten glow"},
			{Title: "deep sea market", Prompt: "An underwater night market lit by bioluminescent lanterns, schools of fish as customers"},
			{Title: "clockwork fox", Prompt: "A clockwork fox made of brass and walnut, macro detail, workshop background"},
		},
		"id": {
			{Title: "pasar terapung", Prompt: "Pasar terapung di pagi hari, kabut tipis di atas sungai, perahu penuh buah tropis"},
			{Title: "warung kopi", Prompt: "Warung kopi tua dengan cahaya jendela hangat, uap kopi, suasana tenang"},
			{Title: "sawah senja", Prompt: "Terasering sawah saat matahari terbenam, langit jingga, siluet petani"},
		},
		"ja": {
			{Title: "雨の路地", Prompt: "雨上がりの狭い路地、提灯の灯り、濡れた石畳に映る光"},
			{Title: "春の駅", Prompt: "桜の花びらが舞う小さな田舎の駅、朝の柔らかい光"},
		},
		"es": {
			{Title: "patio andaluz", Prompt: "Un patio andaluz lleno de macetas de geranios, luz de mediodía, azulejos azules"},
			{Title: "mercado nocturno", Prompt: "Mercado nocturno iluminado con guirnaldas, puestos de frutas, ambiente cálido"},
		},
	}
}

var _ Suggester = (*StaticSuggester)(nil)
