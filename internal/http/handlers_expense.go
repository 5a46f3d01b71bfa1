package http

import (
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/query"
)

type listResponse struct {
	Expenses []expenseView `json:"expenses"`
	// Total counts every record, before filtering.
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Label   string `json:"label"`
	Editing *int64 `json:"editing,omitempty"`
}

// expenseView decorates a record with presentation fields.
type expenseView struct {
	core.Record
	CategoryName string `json:"categoryName"`
	Icon         string `json:"icon"`
}

func newExpenseView(r core.Record) expenseView {
	return expenseView{Record: r, CategoryName: r.Category.DisplayName(), Icon: r.Category.Icon()}
}

type submitResponse struct {
	Expense expenseView `json:"expense"`
	Created bool        `json:"created"`
}

type editResponse struct {
	Expense expenseView `json:"expense"`
	Form    core.Input  `json:"form"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	result := query.Run(s.expenses.All(), spec)
	views := make([]expenseView, 0, len(result.Records))
	for _, rec := range result.Records {
		views = append(views, newExpenseView(rec))
	}
	resp := listResponse{
		Expenses: views,
		Total:    result.Total,
		Count:    len(result.Records),
		Label:    query.CountLabel(len(result.Records)),
	}
	if id, ok := s.session.Editing(); ok {
		resp.Editing = &id
	}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := s.expenses.Get(id)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewResponse().JSON(newExpenseView(rec)).Write(w)
}

// handleSubmitExpense creates a record, or updates the record selected with
// POST /api/expenses/{id}/edit.
func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := parseInput(w, r)
	if !ok {
		return
	}

	rec, created, err := s.session.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewResponse().Status(status).JSON(submitResponse{Expense: newExpenseView(rec), Created: created}).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, ok := parseInput(w, r)
	if !ok {
		return
	}

	rec, err := s.expenses.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(newExpenseView(rec)).Write(w)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := s.session.BeginEdit(id)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(editResponse{Expense: newExpenseView(rec), Form: rec.Input()}).Write(w)
}

func (s *Server) handleEditing(w http.ResponseWriter, r *http.Request) {
	id, ok := s.session.Editing()
	if !ok {
		NoContent().Write(w)
		return
	}
	rec, err := s.expenses.Get(id)
	if err != nil {
		s.session.CancelEdit()
		NoContent().Write(w)
		return
	}
	NewResponse().JSON(editResponse{Expense: newExpenseView(rec), Form: rec.Input()}).Write(w)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.session.CancelEdit()
	NoContent().Write(w)
}

func (s *Server) handleStageDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.session.StageDelete(id)
	if err != nil {
		writeError(w, r, log.OpStage, err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := s.session.ConfirmDelete(r.Context())
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	resp := struct {
		Deleted bool  `json:"deleted"`
		ID      int64 `json:"id,omitempty"`
	}{Deleted: id != 0, ID: id}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	s.session.CancelDelete()
	NoContent().Write(w)
}
