package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagestudio/internal/http/handlers"
	"imagestudio/internal/middleware"
)

// NewRouter wires every endpoint of the studio API. The page itself is served
// from the root; everything else lives under /v1.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSOrigins),
		middleware.I18N("en", lookup),
	)
	if app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/", app.StudioPage)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", app.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetSession)
				r.Get("/events", app.SessionEvents)
				r.Put("/prompt", app.SetPrompt)
				r.Post("/input", app.AttachInput)
				r.Delete("/input", app.RemoveInput)
				r.Post("/editor", app.OpenEditor)
				r.Post("/editor/preview", app.PreviewEdit)
				r.Post("/editor/save", app.SaveEditor)
				r.Delete("/editor", app.CancelEditor)
				r.Post("/generate", app.Generate)
				r.Get("/result", app.Result)
				r.Get("/archive", app.Archive)
			})
		})

		r.Get("/prompts/suggestions", app.PromptSuggestions)
		r.Get("/history/recent", app.HistoryRecent)
		r.Get("/stats/summary", app.StatsSummary)
	})

	return r
}
