package handler

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
)

// EntryHandler はタイムシート明細の REST エンドポイントです。
type EntryHandler struct {
	svc timesheet.EntryUseCase
}

// NewEntryHandler は EntryHandler を生成します。
func NewEntryHandler(svc timesheet.EntryUseCase) *EntryHandler {
	return &EntryHandler{svc: svc}
}

type entryFields struct {
	ProjectID   int64           `json:"project_id"`
	TaskID      *int64          `json:"task_id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	HoursWorked timesheet.Hours `json:"hours_worked"`
}

func (f entryFields) toInput() timesheet.EntryInput {
	return timesheet.EntryInput{
		ProjectID:   f.ProjectID,
		TaskID:      f.TaskID,
		Date:        f.Date.Time,
		Description: f.Description,
		HoursWorked: f.HoursWorked,
	}
}

type entryRequest struct {
	TimesheetID int64 `json:"timesheet_id"`
	entryFields
}

// Create は明細を追加します。
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateEntry(r.Context(), timesheet.CreateEntryInput{
		TimesheetID: req.TimesheetID,
		EntryInput:  req.toInput(),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toEntryResponse(created))
}

// List はすべての明細を返します。
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListEntries(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEntryResponses(list))
}

// ListByTimesheet はタイムシートに属する明細を返します。
func (h *EntryHandler) ListByTimesheet(w http.ResponseWriter, r *http.Request) {
	timesheetID, err := pathID(r, "timesheetId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListByTimesheet(r.Context(), timesheet.ListByTimesheetInput{TimesheetID: timesheetID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEntryResponses(list))
}

// Get は明細を返します。
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetEntry(r.Context(), timesheet.GetEntryInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEntryResponse(found))
}

// Update は明細を置き換えます。
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateEntry(r.Context(), timesheet.UpdateEntryInput{
		ID:          id,
		TimesheetID: req.TimesheetID,
		EntryInput:  req.toInput(),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEntryResponse(updated))
}

// Delete は DRAFT のタイムシートに属する明細を削除します。
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteEntry(r.Context(), timesheet.DeleteEntryInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
