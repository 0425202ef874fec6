package studio

import (
	"time"

	"imagestudio/internal/domain/editcfg"
	"imagestudio/internal/imaging"
)

// Fixed user-facing strings. The empty-prompt message is recorded without
// touching the loading flag or any image; the unknown-error message stands in
// for failures that carry no text of their own.
const (
	EmptyPromptMessage  = "Please enter a prompt to generate an image."
	UnknownErrorMessage = "An unknown error occurred while generating the image."
)

// Phase is the derived display state of a session. Loading wins over a stale
// error message, which wins over a previous result.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// EditingState exists only while the editor is open. Source is the image the
// editor was seeded with; Edit echoes the last submitted contract so a
// reconnecting client can restore its controls.
type EditingState struct {
	Source   imaging.Image
	Edit     editcfg.EditJSON
	OpenedAt time.Time
}

// Session is the studio page's mutable state held server-side. All mutations
// go through the store under its lock.
type Session struct {
	ID           string
	Prompt       string
	Input        *imaging.Image
	Editing      *EditingState
	Generated    *imaging.Image
	Loading      bool
	ErrorMessage string

	LastProvider string
	LastModel    string

	Revision  uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Phase derives the display state. Loading takes priority, then a recorded
// error, then a present result.
func (s *Session) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.ErrorMessage != "":
		return PhaseFailed
	case s.Generated != nil:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.Input = cloneImage(s.Input)
	c.Generated = cloneImage(s.Generated)
	if s.Editing != nil {
		editing := *s.Editing
		c.Editing = &editing
	}
	return &c
}

func cloneImage(img *imaging.Image) *imaging.Image {
	if img == nil {
		return nil
	}
	c := *img
	return &c
}

// Snapshot is the wire representation of a session pushed to clients on every
// change. Image payloads travel as data URLs; raw bytes are served by the
// result endpoint.
type Snapshot struct {
	ID           string          `json:"id"`
	Revision     uint64          `json:"revision"`
	Phase        Phase           `json:"phase"`
	Prompt       string          `json:"prompt"`
	Loading      bool            `json:"loading"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Input        *SnapshotImage  `json:"input,omitempty"`
	Generated    *SnapshotImage  `json:"generated,omitempty"`
	Editor       *SnapshotEditor `json:"editor,omitempty"`
	Provider     string          `json:"provider,omitempty"`
	Model        string          `json:"model,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SnapshotImage carries one image across the JSON boundary.
type SnapshotImage struct {
	MIME      string `json:"mime_type"`
	SizeBytes int    `json:"size_bytes"`
	DataURL   string `json:"data_url"`
}

// SnapshotEditor mirrors the open editor.
type SnapshotEditor struct {
	Source   SnapshotImage    `json:"source"`
	Edit     editcfg.EditJSON `json:"edit"`
	OpenedAt time.Time        `json:"opened_at"`
}

// Snapshot renders the session for clients.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		Revision:     s.Revision,
		Phase:        s.Phase(),
		Prompt:       s.Prompt,
		Loading:      s.Loading,
		ErrorMessage: s.ErrorMessage,
		Provider:     s.LastProvider,
		Model:        s.LastModel,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	snap.Input = snapshotImage(s.Input)
	snap.Generated = snapshotImage(s.Generated)
	if s.Editing != nil {
		snap.Editor = &SnapshotEditor{
			Source:   *snapshotImage(&s.Editing.Source),
			Edit:     s.Editing.Edit,
			OpenedAt: s.Editing.OpenedAt,
		}
	}
	return snap
}

func snapshotImage(img *imaging.Image) *SnapshotImage {
	if img == nil || img.IsZero() {
		return nil
	}
	return &SnapshotImage{
		MIME:      img.MIME,
		SizeBytes: len(img.Data),
		DataURL:   img.DataURL(),
	}
}
