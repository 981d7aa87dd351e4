package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
	"github.com/lmtray/lmtray/internal/status"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ActionResponse acknowledges an accepted action.
type ActionResponse struct {
	TaskID string        `json:"task_id"`
	Action models.Action `json:"action"`
}

// NewMux builds the local HTTP API.
func NewMux(eng Engine, log zerolog.Logger, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, eng.Status())
	})

	r.Post("/actions/{action}", func(w http.ResponseWriter, r *http.Request) {
		a, err := models.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h, err := eng.Trigger(a)
		switch {
		case err == nil:
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("action", string(a)).
				Msg("action accepted")
			writeJSON(w, http.StatusAccepted, ActionResponse{TaskID: h.ID.String(), Action: a})
		case errors.Is(err, engine.ErrDebounced):
			writeJSONError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, runner.ErrBusy):
			writeJSONError(w, http.StatusConflict, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		s := eng.Status()
		if s.Level() == status.Ready {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(s.Presentation.Status))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
