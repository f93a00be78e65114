package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"ratrace/internal/config"
	"ratrace/internal/game"
)

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	game    *game.Engine
	mux     *chi.Mux
	refresh *rate.Limiter
	replays *replayCache
	metrics *metrics
}

func New(cfg config.APIConfig, logger *slog.Logger, engine *game.Engine) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RefreshDebounce > 0 {
		limit = rate.Every(cfg.RefreshDebounce)
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		game:    engine,
		mux:     chi.NewRouter(),
		refresh: rate.NewLimiter(limit, 1),
		replays: newReplayCache(256),
		metrics: newMetrics(prometheus.NewRegistry()),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.tokenGuard)
		r.Use(s.idempotent)

		r.Post("/game", s.handleNewGame)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/snapshot", s.handleSnapshot)
		r.Post("/refresh", s.handleRefresh)

		r.Get("/transactions", s.handleTransactions)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/credit/pay", s.handlePayCredit)

		r.Get("/quotes", s.handleQuotes)
		r.Post("/orders", s.handleOrder)
		r.Post("/market/updates", s.handleMarketUpdate)

		r.Get("/offers", s.handleOffers)
		r.Post("/offers/{id}/respond", s.handleRespondOffer)
		r.Post("/offers/{id}/expire", s.handleExpireOffer)
		r.Post("/businesses/{id}/sell", s.handleSellBusiness)
		r.Post("/exit-prompt/dismiss", s.handleDismissExitPrompt)

		r.Get("/messages", s.handleMessages)
		r.Post("/messages/{id}/archive", s.handleArchiveMessage)
		r.Post("/messages/{id}/read", s.handleMarkMessageRead)
		r.Get("/threads/{id}", s.handleThread)
		r.Post("/threads/{id}/read", s.handleMarkThreadRead)

		r.Get("/feed", s.handleFeed)
		r.Post("/posts", s.handleAddPost)
	})
}

// tokenGuard checks the shared bearer token. An empty configured token
// leaves the API open, which is how a local single-player host runs.
func (s *Server) tokenGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrInsufficientQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrInvalidAmount), errors.Is(err, game.ErrInvalidSymbol), errors.Is(err, game.ErrAccountNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnknownRole), errors.Is(err, game.ErrUnknownGoal):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrAssetNotFound), errors.Is(err, game.ErrBusinessNotFound), errors.Is(err, game.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
