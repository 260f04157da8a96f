package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
	applog "weekbudget/internal/log"
)

const maxBodyBytes = 64 << 10

type (
	allowanceRequest struct {
		Amount amountField `json:"amount"`
	}

	expenseRequest struct {
		Amount      amountField `json:"amount"`
		Description string      `json:"description"`
		Category    string      `json:"category"`
		Recurring   bool        `json:"recurring"`
	}

	jumpRequest struct {
		WeekID string `json:"weekId"`
	}

	errorResponse struct {
		Error    string `json:"error"`
		Rejected bool   `json:"rejected,omitempty"`
	}

	expenseResponse struct {
		Expense  core.Expense  `json:"expense"`
		Snapshot core.Snapshot `json:"snapshot"`
	}

	deleteResponse struct {
		Deleted  bool          `json:"deleted"`
		Snapshot core.Snapshot `json:"snapshot"`
	}

	advanceResponse struct {
		Archived core.WeekSummary `json:"archived"`
		Snapshot core.Snapshot    `json:"snapshot"`
	}

	historyResponse struct {
		History []core.WeekSummary `json:"history"`
		Stats   core.HistoryStats  `json:"stats"`
	}

	indexData struct {
		Snapshot core.Snapshot
		Stats    core.HistoryStats
	}
)

// amountField accepts a JSON number or a decimal string ("12,50"). A string
// that does not parse decodes to zero so the ledger refuses it like any other
// non-positive amount.
type amountField struct {
	core.Money
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		m, err := core.ParseAmount(s)
		if err != nil {
			a.Money = core.Money{}
			return nil
		}
		a.Money = m
		return nil
	}
	return a.Money.UnmarshalJSON(data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := indexData{Snapshot: s.ledger.Snapshot(), Stats: s.ledger.Stats()}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.events.LogError(r.Context(), "Index template execution failed", err, "render_index", nil)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, historyResponse{
		History: s.ledger.History(),
		Stats:   s.ledger.Stats(),
	})
}

func (s *Server) handleSetAllowance(w http.ResponseWriter, r *http.Request) {
	var req allowanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.ledger.SetAllowance(r.Context(), req.Amount.Money); err != nil {
		s.fail(w, r, "set_allowance", err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !s.decode(w, r, &req) {
		return
	}
	exp, err := s.ledger.AddExpense(r.Context(), ledger.NewExpense{
		Amount:      req.Amount.Money,
		Description: req.Description,
		Category:    core.Category(req.Category),
		Recurring:   req.Recurring,
	})
	if err != nil {
		s.fail(w, r, "add_expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Expense: exp, Snapshot: s.ledger.Snapshot()})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	deleted := s.ledger.DeleteExpense(r.Context(), id)
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: deleted, Snapshot: s.ledger.Snapshot()})
}

func (s *Server) handleAdvanceWeek(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.AdvanceWeek(r.Context())
	if err != nil {
		s.fail(w, r, "advance_week", err)
		return
	}
	writeJSON(w, http.StatusOK, advanceResponse{Archived: summary, Snapshot: s.ledger.Snapshot()})
}

func (s *Server) handleJumpToWeek(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.ledger.JumpToWeek(r.Context(), req.WeekID); err != nil {
		s.fail(w, r, "jump_to_week", err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handlePreviousWeek(w http.ResponseWriter, r *http.Request) {
	s.ledger.PreviousWeek(r.Context())
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handleNextWeek(w http.ResponseWriter, r *http.Request) {
	s.ledger.NextWeekView(r.Context())
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.logger.InfoContext(r.Context(), "Malformed request body",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
		writeError(w, http.StatusBadRequest, "malformed JSON body", false)
		return false
	}
	return true
}

// fail maps a ledger refusal to 422 and anything else to 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ledger.ErrRejected) {
		reason := ledger.Reason(err)
		s.events.LogRefusal(r.Context(), op, reason)
		writeError(w, http.StatusUnprocessableEntity, reason, true)
		return
	}
	s.events.LogError(r.Context(), "Ledger operation failed", err, op, nil)
	writeError(w, http.StatusInternalServerError, "internal error", false)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, rejected bool) {
	writeJSON(w, status, errorResponse{Error: msg, Rejected: rejected})
}
