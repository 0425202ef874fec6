package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"imagestudio/internal/domain"
	"imagestudio/internal/domain/editcfg"
	"imagestudio/internal/imaging"
	"imagestudio/internal/infra"
	"imagestudio/internal/providers/image"
)

// assetWriter is the slice of the filesystem store the service needs.
type assetWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// GenerationRecord describes one finished provider call for the history
// store.
type GenerationRecord struct {
	SessionID string
	RequestID string
	Prompt    string
	Mode      string
	Provider  string
	Model     string
	Status    string
	Message   string
	Elapsed   time.Duration
	SizeBytes int
}

// Recorder persists generation records. Implementations must tolerate being
// called from the generation goroutine.
type Recorder interface {
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}

// Options wires a Service.
type Options struct {
	Store     *Store
	Generator image.Generator
	Files     assetWriter
	Recorder  Recorder
	Logger    infra.Logger

	// Concurrency caps provider calls across all sessions. Values below 1
	// are treated as 1.
	Concurrency int

	// Timeout bounds one provider call. Zero means no bound beyond the HTTP
	// client's own.
	Timeout time.Duration
}

// Service owns the session state machine. Every mutation is funneled through
// the store; the generation itself runs detached from the submitting request
// because an in-flight generation cannot be aborted.
type Service struct {
	store     *Store
	generator image.Generator
	files     assetWriter
	recorder  Recorder
	logger    infra.Logger
	sem       chan struct{}
	timeout   time.Duration
}

// NewService validates the options and returns a ready service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("studio: store is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("studio: generator is required")
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:     opts.Store,
		generator: opts.Generator,
		files:     opts.Files,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		sem:       make(chan struct{}, concurrency),
		timeout:   opts.Timeout,
	}, nil
}

// Create starts a fresh idle session.
func (s *Service) Create() Snapshot {
	return s.store.Create()
}

// Get returns the session's current snapshot.
func (s *Service) Get(id string) (Snapshot, error) {
	return s.store.Get(id)
}

// Watch subscribes to the session's snapshot stream.
func (s *Service) Watch(id string) (<-chan Snapshot, func(), error) {
	return s.store.Watch(id)
}

// SetPrompt replaces the prompt text. The prompt is the user's and is never
// cleared or rewritten by the service, so setting it is allowed even while a
// generation runs.
func (s *Service) SetPrompt(id, prompt string) (Snapshot, error) {
	return s.store.Update(id, func(sess *Session) error {
		sess.Prompt = prompt
		return nil
	})
}

// AttachInput replaces the input image and clears the previous result.
// Rejected while a generation is in flight.
func (s *Service) AttachInput(id string, img imaging.Image) (Snapshot, error) {
	if img.IsZero() {
		return Snapshot{}, domain.ErrInvalidImage
	}
	return s.store.Update(id, func(sess *Session) error {
		if sess.Loading {
			return domain.ErrGenerationBusy
		}
		sess.Input = &img
		sess.Generated = nil
		return nil
	})
}

// RemoveInput detaches the input image. The generated result, if any, stays.
func (s *Service) RemoveInput(id string) (Snapshot, error) {
	return s.store.Update(id, func(sess *Session) error {
		if sess.Loading {
			return domain.ErrGenerationBusy
		}
		sess.Input = nil
		return nil
	})
}

// OpenEditor opens the editor seeded from the supplied image, or from the
// current input image when none is supplied.
func (s *Service) OpenEditor(id string, source *imaging.Image) (Snapshot, error) {
	return s.store.Update(id, func(sess *Session) error {
		seed := source
		if seed == nil {
			seed = sess.Input
		}
		if seed == nil || seed.IsZero() {
			return domain.ErrNoInputImage
		}
		sess.Editing = &EditingState{
			Source:   *seed,
			Edit:     editcfg.EditJSON{Version: editcfg.DefaultEditVersion},
			OpenedAt: time.Now().UTC(),
		}
		return nil
	})
}

// PreviewEdit bakes the submitted contract against the editor's source and
// returns the preview without committing anything. The contract is remembered
// on the editor so reconnecting clients see the controls they left.
func (s *Service) PreviewEdit(id string, edit editcfg.EditJSON) (imaging.Image, error) {
	edit.Normalize()
	if err := edit.Validate(); err != nil {
		return imaging.Image{}, err
	}

	var source imaging.Image
	err := s.store.View(id, func(sess *Session) error {
		if sess.Editing == nil {
			return domain.ErrEditorClosed
		}
		source = sess.Editing.Source
		return nil
	})
	if err != nil {
		return imaging.Image{}, err
	}

	preview, err := imaging.ApplyEdits(source, edit)
	if err != nil {
		return imaging.Image{}, err
	}

	if _, err := s.store.Update(id, func(sess *Session) error {
		if sess.Editing == nil {
			return domain.ErrEditorClosed
		}
		sess.Editing.Edit = edit
		return nil
	}); err != nil {
		return imaging.Image{}, err
	}
	return preview, nil
}

// SaveEditor bakes the contract and commits the result as the new input
// image. The previous result is cleared, the prompt is left untouched, and
// the editor closes.
func (s *Service) SaveEditor(id string, edit editcfg.EditJSON) (Snapshot, error) {
	edit.Normalize()
	if err := edit.Validate(); err != nil {
		return Snapshot{}, err
	}

	var source imaging.Image
	err := s.store.View(id, func(sess *Session) error {
		if sess.Editing == nil {
			return domain.ErrEditorClosed
		}
		if sess.Loading {
			return domain.ErrGenerationBusy
		}
		source = sess.Editing.Source
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	baked, err := imaging.ApplyEdits(source, edit)
	if err != nil {
		return Snapshot{}, err
	}

	return s.store.Update(id, func(sess *Session) error {
		if sess.Editing == nil {
			return domain.ErrEditorClosed
		}
		if sess.Loading {
			return domain.ErrGenerationBusy
		}
		sess.Input = &baked
		sess.Generated = nil
		sess.Editing = nil
		return nil
	})
}

// CancelEditor discards the editor without touching the input image. Closing
// an already-closed editor is a no-op.
func (s *Service) CancelEditor(id string) (Snapshot, error) {
	snap, err := s.store.Update(id, func(sess *Session) error {
		if sess.Editing == nil {
			return domain.ErrEditorClosed
		}
		sess.Editing = nil
		return nil
	})
	if errors.Is(err, domain.ErrEditorClosed) {
		return s.store.Get(id)
	}
	return snap, err
}

// Generate submits the session for generation. An empty prompt is recorded as
// the fixed inline error without starting anything and without touching the
// loading flag, the input, or the previous result. A submit while one is in
// flight is rejected. Otherwise the session enters loading with the error and
// result cleared, and exactly one provider call runs detached from the
// caller.
func (s *Service) Generate(ctx context.Context, id, locale, requestID string) (Snapshot, error) {
	var (
		prompt  string
		source  *imaging.Image
		started bool
	)
	snap, err := s.store.Update(id, func(sess *Session) error {
		if sess.Loading {
			return domain.ErrGenerationBusy
		}
		if strings.TrimSpace(sess.Prompt) == "" {
			sess.ErrorMessage = EmptyPromptMessage
			return nil
		}
		sess.Loading = true
		sess.ErrorMessage = ""
		sess.Generated = nil
		prompt = sess.Prompt
		source = cloneImage(sess.Input)
		started = true
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !started {
		return snap, domain.ErrEmptyPrompt
	}

	if requestID == "" {
		requestID = uuid.NewString()
	}
	go s.run(id, prompt, source, locale, requestID)
	return snap, nil
}

// run executes one provider call on a context detached from the submitting
// request, because submissions cannot be aborted.
func (s *Service) run(id, prompt string, source *imaging.Image, locale, requestID string) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	mode := "generate"
	if source != nil {
		mode = "enhance"
	}

	startedAt := time.Now()
	result, err := s.generator.Generate(ctx, image.Request{
		Prompt:    prompt,
		Locale:    locale,
		RequestID: requestID,
		Source:    source,
	})
	elapsed := time.Since(startedAt)

	if err != nil {
		s.finishFailure(id, requestID, prompt, mode, err, elapsed)
		return
	}

	final, err := toPNG(result.Image)
	if err != nil {
		s.finishFailure(id, requestID, prompt, mode, err, elapsed)
		return
	}

	snap, err := s.store.Update(id, func(sess *Session) error {
		sess.Loading = false
		sess.ErrorMessage = ""
		sess.Generated = &final
		sess.LastProvider = result.Provider
		sess.LastModel = result.Model
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("studio: session vanished before completion")
		return
	}

	s.logger.Info().
		Str("session_id", id).
		Str("request_id", requestID).
		Str("provider", result.Provider).
		Str("mode", mode).
		Dur("elapsed", elapsed).
		Int("bytes", len(final.Data)).
		Msg("studio: generation succeeded")

	s.writeAsset(id, snap.Revision, final)
	s.record(GenerationRecord{
		SessionID: id,
		RequestID: requestID,
		Prompt:    prompt,
		Mode:      mode,
		Provider:  result.Provider,
		Model:     result.Model,
		Status:    "succeeded",
		Elapsed:   elapsed,
		SizeBytes: len(final.Data),
	})
}

// finishFailure records the failure's message on the session verbatim, or the
// fixed fallback when the failure carries no text.
func (s *Service) finishFailure(id, requestID, prompt, mode string, cause error, elapsed time.Duration) {
	message := ""
	if cause != nil {
		message = strings.TrimSpace(cause.Error())
	}
	if message == "" {
		message = UnknownErrorMessage
	}

	if _, err := s.store.Update(id, func(sess *Session) error {
		sess.Loading = false
		sess.ErrorMessage = message
		sess.Generated = nil
		return nil
	}); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("studio: session vanished before failure")
		return
	}

	s.logger.Warn().
		Str("session_id", id).
		Str("request_id", requestID).
		Str("mode", mode).
		Dur("elapsed", elapsed).
		Str("message", message).
		Msg("studio: generation failed")

	s.record(GenerationRecord{
		SessionID: id,
		RequestID: requestID,
		Prompt:    prompt,
		Mode:      mode,
		Status:    "failed",
		Message:   message,
		Elapsed:   elapsed,
	})
}

func (s *Service) writeAsset(id string, revision uint64, img imaging.Image) {
	if s.files == nil {
		return
	}
	key := fmt.Sprintf("sessions/%s/generated-%d%s", id, revision, img.Extension())
	if _, err := s.files.Write(context.Background(), key, img.Data); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("studio: asset write failed")
	}
}

func (s *Service) record(rec GenerationRecord) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordGeneration(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("session_id", rec.SessionID).Msg("studio: history record failed")
	}
}

// Result returns the raw generated image.
func (s *Service) Result(id string) (imaging.Image, error) {
	var img imaging.Image
	err := s.store.View(id, func(sess *Session) error {
		if sess.Generated == nil {
			return domain.ErrNotFound
		}
		img = *sess.Generated
		return nil
	})
	return img, err
}

// Bundle collects the session's prompt and images for archiving.
type Bundle struct {
	Prompt    string
	Input     *imaging.Image
	Generated *imaging.Image
}

// Archive returns the session's current bundle.
func (s *Service) Archive(id string) (Bundle, error) {
	var b Bundle
	err := s.store.View(id, func(sess *Session) error {
		b.Prompt = sess.Prompt
		b.Input = cloneImage(sess.Input)
		b.Generated = cloneImage(sess.Generated)
		return nil
	})
	return b, err
}

func toPNG(img imaging.Image) (imaging.Image, error) {
	if img.MIME == "image/png" {
		return img, nil
	}
	decoded, err := imaging.Decode(img)
	if err != nil {
		return imaging.Image{}, err
	}
	return imaging.EncodePNG(decoded)
}
