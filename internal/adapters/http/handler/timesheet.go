package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
)

// TimesheetHandler はタイムシートの REST エンドポイントです。
type TimesheetHandler struct {
	svc timesheet.UseCase
}

// NewTimesheetHandler は TimesheetHandler を生成します。
func NewTimesheetHandler(svc timesheet.UseCase) *TimesheetHandler {
	return &TimesheetHandler{svc: svc}
}

type createTimesheetRequest struct {
	EmployeeID  int64 `json:"employee_id"`
	PeriodStart Date  `json:"period_start"`
	PeriodEnd   Date  `json:"period_end"`
}

type updateTimesheetRequest struct {
	EmployeeID     int64            `json:"employee_id"`
	PeriodStart    Date             `json:"period_start"`
	PeriodEnd      Date             `json:"period_end"`
	Status         *string          `json:"status"`
	SubmissionDate *time.Time       `json:"submission_date"`
	TotalHours     *timesheet.Hours `json:"total_hours"`
}

type timesheetWithEntriesRequest struct {
	EmployeeID     int64            `json:"employee_id"`
	PeriodStart    Date             `json:"period_start"`
	PeriodEnd      Date             `json:"period_end"`
	Status         string           `json:"status"`
	SubmissionDate *time.Time       `json:"submission_date"`
	TotalHours     *timesheet.Hours `json:"total_hours"`
	Entries        []entryFields    `json:"entries"`
}

func (req timesheetWithEntriesRequest) toInput() timesheet.CreateTimesheetWithEntriesInput {
	entries := make([]timesheet.EntryInput, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, e.toInput())
	}
	return timesheet.CreateTimesheetWithEntriesInput{
		EmployeeID:     req.EmployeeID,
		PeriodStart:    req.PeriodStart.Time,
		PeriodEnd:      req.PeriodEnd.Time,
		Status:         req.Status,
		SubmissionDate: req.SubmissionDate,
		TotalHours:     req.TotalHours,
		Entries:        entries,
	}
}

// Create は DRAFT のタイムシートを作成します。
func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTimesheetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateTimesheet(r.Context(), timesheet.CreateTimesheetInput{
		EmployeeID:  req.EmployeeID,
		PeriodStart: req.PeriodStart.Time,
		PeriodEnd:   req.PeriodEnd.Time,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toTimesheetResponse(created))
}

// CreateWithEntries はタイムシートと明細を一括で作成します。
func (h *TimesheetHandler) CreateWithEntries(w http.ResponseWriter, r *http.Request) {
	var req timesheetWithEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateTimesheetWithEntries(r.Context(), req.toInput())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toTimesheetResponse(created))
}

// List はすべてのタイムシートを返します。
func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTimesheets(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponses(list))
}

// ListMine は呼び出し元の社員のタイムシートを返します。
func (h *TimesheetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListByEmployee(r.Context(), timesheet.ListByEmployeeInput{EmployeeID: p.EmployeeID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponses(list))
}

// ListByEmployee は社員のタイムシートを返します。
// start と end を両方指定した場合はその期間に開始するものに絞り込みます。
func (h *TimesheetHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employeeId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var list []*timesheet.Timesheet
	switch {
	case start == nil && end == nil:
		list, err = h.svc.ListByEmployee(r.Context(), timesheet.ListByEmployeeInput{EmployeeID: employeeID})
	case start != nil && end != nil:
		list, err = h.svc.FindByEmployeeAndPeriod(r.Context(), timesheet.FindByEmployeeAndPeriodInput{
			EmployeeID: employeeID,
			Start:      *start,
			End:        *end,
		})
	default:
		err = fmt.Errorf("%w: start and end must be given together", ErrInvalidQueryParam)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponses(list))
}

// Get はタイムシートを返します。
func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetTimesheet(r.Context(), timesheet.GetTimesheetInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponse(found))
}

// GetDetail はタイムシートと明細、および明細から再計算した合計時間を返します。
func (h *TimesheetHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	detail, err := h.svc.GetTimesheetDetail(r.Context(), timesheet.GetTimesheetInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, timesheetDetailResponse{
		Timesheet:            toTimesheetResponse(detail.Timesheet),
		Entries:              toEntryResponses(detail.Entries),
		CalculatedTotalHours: detail.CalculatedTotalHours,
	})
}

// Update はタイムシートを更新します。状態による制限はありません。
func (h *TimesheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateTimesheetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateTimesheet(r.Context(), timesheet.UpdateTimesheetInput{
		ID:             id,
		EmployeeID:     req.EmployeeID,
		PeriodStart:    req.PeriodStart.Time,
		PeriodEnd:      req.PeriodEnd.Time,
		Status:         req.Status,
		SubmissionDate: req.SubmissionDate,
		TotalHours:     req.TotalHours,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponse(updated))
}

// UpdateWithEntries は DRAFT のタイムシートの明細を丸ごと置き換えます。
func (h *TimesheetHandler) UpdateWithEntries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req timesheetWithEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateTimesheetWithEntries(r.Context(), timesheet.UpdateTimesheetWithEntriesInput{
		ID:                              id,
		CreateTimesheetWithEntriesInput: req.toInput(),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTimesheetResponse(updated))
}

// Delete は DRAFT のタイムシートを承認記録・明細ごと削除します。
func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteTimesheet(r.Context(), timesheet.DeleteTimesheetInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
