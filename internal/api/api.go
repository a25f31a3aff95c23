// Package api serves the phonoshift JSON API.
//
// Endpoints:
//
//	GET  /v1/speakers
//	POST /v1/speakers/{name}/guess   body: {"target":"K-AE T","explain":false}
//	GET  /v1/speakers/{name}/rules
//	PUT  /v1/speakers/{name}/pairs   body: {"pairs":[{"target":"...","actual":"..."}]}
//
// The pairs endpoint also accepts the plain-text line format
// (Content-Type: text/plain) and YAML (Content-Type: application/yaml).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/rs/cors"

	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/internal/observe"
	"github.com/MrWong99/phonoshift/internal/speaker"
	"github.com/MrWong99/phonoshift/pkg/notation"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Speakers is the subset of [speaker.Registry] the handlers need.
type Speakers interface {
	List() []speaker.Info
	Guess(ctx context.Context, name, target string) (string, error)
	Explain(ctx context.Context, name, target string) (string, []rules.Decision, error)
	Model(name string) (*rules.Model, error)
	SetPairs(ctx context.Context, name string, pairs []rules.Pair) (rules.Stats, error)
}

// Handler serves the /v1 routes.
type Handler struct {
	speakers Speakers
	logger   *slog.Logger
}

// New creates a [Handler]. A nil logger uses [slog.Default].
func New(speakers Speakers, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{speakers: speakers, logger: logger}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/speakers", h.listSpeakers)
	mux.HandleFunc("POST /v1/speakers/{name}/guess", h.guess)
	mux.HandleFunc("GET /v1/speakers/{name}/rules", h.listRules)
	mux.HandleFunc("PUT /v1/speakers/{name}/pairs", h.putPairs)
}

// Wrap applies tracing, metrics and request logging to next, and CORS for
// the given origins. No origins disables cross-origin access.
func Wrap(next http.Handler, m *observe.Metrics, origins []string) http.Handler {
	h := observe.Middleware(m)(next)
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         600,
	}).Handler(h)
}

type errorResponse struct {
	Error string `json:"error"`
}

type speakersResponse struct {
	Speakers []speaker.Info `json:"speakers"`
}

type guessRequest struct {
	Target  string `json:"target"`
	Explain bool   `json:"explain"`
}

type guessResponse struct {
	Speaker   string           `json:"speaker"`
	Target    string           `json:"target"`
	Guess     string           `json:"guess"`
	Decisions []rules.Decision `json:"decisions,omitempty"`
}

type rulesResponse struct {
	Speaker     string                  `json:"speaker"`
	Specific    []rules.SpecificRule    `json:"specific"`
	Generalized []rules.GeneralizedRule `json:"generalized"`
	Stats       rules.Stats             `json:"stats"`
}

type pairsRequest struct {
	Pairs []rules.Pair `json:"pairs"`
}

type pairsResponse struct {
	Speaker string      `json:"speaker"`
	Stats   rules.Stats `json:"stats"`
}

func (h *Handler) listSpeakers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, speakersResponse{Speakers: h.speakers.List()})
}

func (h *Handler) guess(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req guessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with a 'target' field")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "missing 'target'")
		return
	}

	res := guessResponse{Speaker: name, Target: req.Target}
	var err error
	if req.Explain {
		res.Guess, res.Decisions, err = h.speakers.Explain(r.Context(), name, req.Target)
	} else {
		res.Guess, err = h.speakers.Guess(r.Context(), name, req.Target)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	m, err := h.speakers.Model(name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesResponse{
		Speaker:     name,
		Specific:    m.SpecificRules(),
		Generalized: m.GeneralizedRules(),
		Stats:       m.Stats(),
	})
}

func (h *Handler) putPairs(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	pairs, err := decodePairs(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := h.speakers.SetPairs(r.Context(), name, pairs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairsResponse{Speaker: name, Stats: stats})
}

// decodePairs reads the request body according to its Content-Type.
func decodePairs(w http.ResponseWriter, r *http.Request) ([]rules.Pair, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Type: %w", err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		var req pairsRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, errors.New("body must be JSON with a 'pairs' list")
		}
		return req.Pairs, nil
	case "text/plain":
		return dataset.Decode(body, "lines")
	case "application/yaml", "application/x-yaml", "text/yaml":
		return dataset.Decode(body, "yaml")
	}
	return nil, fmt.Errorf("unsupported Content-Type %q", mediaType)
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, speaker.ErrUnknownSpeaker):
		status = http.StatusNotFound
	case errors.Is(err, speaker.ErrNotTrained):
		status = http.StatusConflict
	case errors.Is(err, notation.ErrInvalidPhoneme),
		errors.Is(err, rules.ErrInvalidInput),
		errors.Is(err, rules.ErrSyllableCountMismatch),
		errors.Is(err, rules.ErrPhonemeCountMismatch):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		observe.WithTrace(r.Context(), h.logger).ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"err", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
