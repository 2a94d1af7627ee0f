package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
)

// mutationResponse is returned by the expense endpoints.
type mutationResponse struct {
	Transaction core.Transaction `json:"transaction"`
	Version     int64            `json:"version"`
	Wallet      core.WalletState `json:"wallet"`
}

type categoryResponse struct {
	ID    core.Category `json:"id"`
	Label string        `json:"label"`
	Color string        `json:"color"`
}

type categoriesResponse struct {
	Version    int                `json:"version"`
	Categories []categoryResponse `json:"categories"`
}

type indexData struct {
	Currency      string
	Balance       string
	TotalExpenses string
	Categories    []categoryResponse
}

func categoryList() []categoryResponse {
	cats := core.Categories()
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{ID: c, Label: c.Label(), Color: c.Color()})
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		writeError(w, http.StatusInternalServerError, "templates not loaded")
		return
	}
	snap := s.ledger.Snapshot()
	data := indexData{
		Currency:      s.cfg.Currency,
		Balance:       snap.Balance.Format(s.cfg.Currency),
		TotalExpenses: snap.TotalExpenses.Format(s.cfg.Currency),
		Categories:    categoryList(),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.sl.LogError(r.Context(), "Template render failed", err, log.OpRender, nil)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary(s.ledger.Snapshot()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Version:    core.CategorySetVersion,
		Categories: categoryList(),
	})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	amount, err := parseIncome(r)
	if err == nil {
		var snap core.Snapshot
		snap, err = s.ledger.AddIncome(amount)
		if err == nil {
			s.mutated(r.Context(), log.OpAddIncome, nil, snap)
			writeJSON(w, http.StatusOK, snap)
			return
		}
	}
	s.writeLedgerError(w, r, log.OpAddIncome, err)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	draft, err := parseExpenseDraft(r)
	if err == nil {
		var t core.Transaction
		t, err = s.ledger.AddExpense(draft)
		if err == nil {
			s.writeMutation(w, r, http.StatusCreated, log.OpAddExpense, t)
			return
		}
	}
	s.writeLedgerError(w, r, log.OpAddExpense, err)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err == nil {
		var draft core.ExpenseDraft
		draft, err = parseExpenseDraft(r)
		if err == nil {
			var t core.Transaction
			t, err = s.ledger.EditExpense(id, draft)
			if err == nil {
				s.writeMutation(w, r, http.StatusOK, log.OpEditExpense, t)
				return
			}
		}
	}
	s.writeLedgerError(w, r, log.OpEditExpense, err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err == nil {
		var t core.Transaction
		t, err = s.ledger.DeleteExpense(id)
		if err == nil {
			s.writeMutation(w, r, http.StatusOK, log.OpDeleteExpense, t)
			return
		}
	}
	s.writeLedgerError(w, r, log.OpDeleteExpense, err)
}

// writeMutation reports the wallet as it is right after the mutation was
// applied. Concurrent requests may already have moved it on.
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, status int, op string, t core.Transaction) {
	snap := s.ledger.Snapshot()
	s.mutated(r.Context(), op, &t, snap)
	writeJSON(w, status, mutationResponse{
		Transaction: t,
		Version:     snap.Version,
		Wallet:      snap.Wallet(),
	})
}

func (s *Server) mutated(ctx context.Context, op string, t *core.Transaction, snap core.Snapshot) {
	metrics.RecordOperation(op, nil)
	s.sl.LogMutation(ctx, op, t, snap)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cfg.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
