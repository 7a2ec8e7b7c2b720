// Package api serves the catalog over a read-only JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/export"
	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

// MaxLimit caps the limit query parameter.
const MaxLimit = 1000

// Catalog is the store surface the API reads from.
type Catalog interface {
	catalog.Reader
	GetVoice(ctx context.Context, key string) (*model.Voice, error)
	Search(ctx context.Context, query string, limit int) ([]model.Voice, error)
	Stats(ctx context.Context) (*catalog.Stats, error)
}

// Server holds the handler dependencies.
type Server struct {
	cat  Catalog
	refs *reference.Tables
	now  func() time.Time
	log  *zap.Logger
}

// NewRouter builds the chi router for the catalog API.
func NewRouter(cat Catalog, refs *reference.Tables) http.Handler {
	if refs == nil {
		refs = reference.Empty()
	}
	s := &Server{
		cat:  cat,
		refs: refs,
		now:  time.Now,
		log:  zap.L().With(zap.String("component", "api")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/stats", s.stats)
	r.Get("/voices", s.listVoices)
	r.Get("/voices/*", s.getVoice)
	r.Get("/solutions", s.listSolutions)
	r.Get("/site.json", s.site)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.cat.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listVoices(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var voices []model.Voice
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		voices, err = s.cat.Search(r.Context(), q, limit)
		if err != nil {
			s.log.Debug("search failed", zap.String("q", q), zap.Error(err))
			writeError(w, http.StatusBadRequest, "invalid search query")
			return
		}
	} else {
		voices, err = s.cat.ListVoices(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if limit > 0 && len(voices) > limit {
			voices = voices[:limit]
		}
	}
	if voices == nil {
		voices = []model.Voice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(voices),
		"voices": voices,
	})
}

func (s *Server) getVoice(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || strings.TrimSpace(key) == "" {
		writeError(w, http.StatusBadRequest, "invalid voice key")
		return
	}
	v, err := s.cat.GetVoice(r.Context(), key)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "voice not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) listSolutions(w http.ResponseWriter, r *http.Request) {
	solutions, err := s.cat.ListSolutions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	matches, err := s.cat.ListMatches(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if solutions == nil {
		solutions = []model.Solution{}
	}
	if matches == nil {
		matches = []model.SolutionVoiceMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"solutions": solutions,
		"matches":   matches,
	})
}

func (s *Server) site(w http.ResponseWriter, r *http.Request) {
	p, err := export.Build(r.Context(), s.cat, s.refs, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// parseLimit accepts an empty value (no limit) or a positive integer,
// capped at MaxLimit.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
