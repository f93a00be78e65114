package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ratrace/internal/game"
)

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RoleID    string `json:"role_id"`
		GoalID    string `json:"goal_id"`
		Name      string `json:"name"`
		Handle    string `json:"handle"`
		AvatarRef string `json:"avatar_ref"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.game.NewGame(r.Context(), game.NewGameInput{
		RoleID:    in.RoleID,
		GoalID:    in.GoalID,
		Name:      in.Name,
		Handle:    in.Handle,
		AvatarRef: in.AvatarRef,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Dashboard())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	raw, err := s.game.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refresh.Allow() {
		s.metrics.limited.Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.RefreshDebounce.Seconds()+0.999)))
		writeError(w, http.StatusTooManyRequests, "refresh is cooling down")
		return
	}
	rep := s.game.Refresh(r.Context())
	dash := s.game.Dashboard()

	s.metrics.refreshes.Inc()
	s.metrics.dayTypes.WithLabelValues(string(rep.DayType)).Inc()
	if rep.Payday {
		s.metrics.paydays.Inc()
	}
	s.metrics.netWorth.Set(float64(dash.NetWorth) / float64(game.MicrosPerDollar))

	writeJSON(w, http.StatusOK, map[string]any{
		"report":          rep,
		"unread_messages": dash.UnreadMessages,
		"exit_prompt":     dash.ExitPrompt,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": s.game.Transactions(limit)})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		From         game.AccountKind `json:"from"`
		To           game.AccountKind `json:"to"`
		AmountMicros int64            `json:"amount_micros"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.Transfer(r.Context(), in.From, in.To, in.AmountMicros); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": s.game.Dashboard().Accounts})
}

func (s *Server) handlePayCredit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Card         game.AccountKind `json:"card"`
		AmountMicros int64            `json:"amount_micros"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	paid, err := s.game.PayCredit(r.Context(), in.AmountMicros, in.Card)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paid_micros": paid,
		"accounts":    s.game.Dashboard().Accounts,
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"quotes": s.game.Quotes()})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Symbol        string           `json:"symbol"`
		Side          string           `json:"side"`
		QuantityUnits int64            `json:"quantity_units"`
		Account       game.AccountKind `json:"account"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch strings.ToLower(strings.TrimSpace(in.Side)) {
	case "buy":
		asset, err := s.game.Buy(r.Context(), in.Symbol, in.QuantityUnits, in.Account)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"side": "buy", "asset": asset})
	case "sell":
		proceeds, err := s.game.Sell(r.Context(), in.Symbol, in.QuantityUnits)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"side": "sell", "proceeds_micros": proceeds})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("side must be buy or sell, got %q", in.Side))
	}
}

func (s *Server) handleMarketUpdate(w http.ResponseWriter, r *http.Request) {
	var in game.MarketUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.ApplyMarketUpdate(r.Context(), in); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": s.game.Quotes()})
}

func (s *Server) handleOffers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"offers": s.game.Offers()})
}

func (s *Server) handleRespondOffer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Accept  bool             `json:"accept"`
		Account game.AccountKind `json:"account"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owned, err := s.game.RespondToOffer(r.Context(), chi.URLParam(r, "id"), in.Accept, in.Account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !in.Accept {
		writeJSON(w, http.StatusOK, map[string]any{"status": game.StatusRejected})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": game.StatusAccepted, "business": owned})
}

func (s *Server) handleExpireOffer(w http.ResponseWriter, r *http.Request) {
	if err := s.game.ExpireOffer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": game.StatusExpired})
}

func (s *Server) handleSellBusiness(w http.ResponseWriter, r *http.Request) {
	proceeds, err := s.game.SellBusiness(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proceeds_micros": proceeds,
		"accounts":        s.game.Dashboard().Accounts,
	})
}

func (s *Server) handleDismissExitPrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.game.DismissExitPrompt(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "1"
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.game.Messages(archived),
		"unread":   s.game.Dashboard().UnreadMessages,
	})
}

func (s *Server) handleArchiveMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.game.ArchiveMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	changed, err := s.game.MarkMessageRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	msgs := s.game.Thread(chi.URLParam(r, "id"))
	if len(msgs) == 0 {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleMarkThreadRead(w http.ResponseWriter, r *http.Request) {
	changed := s.game.MarkThreadRead(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"posts": s.game.Feed()})
}

func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content string   `json:"content"`
		Media   []string `json:"media"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	post, err := s.game.AddPost(r.Context(), in.Content, in.Media)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}
