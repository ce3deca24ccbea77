package handler

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
)

// ApprovalHandler は承認記録の REST エンドポイントです。
type ApprovalHandler struct {
	svc approval.UseCase
}

// NewApprovalHandler は ApprovalHandler を生成します。
func NewApprovalHandler(svc approval.UseCase) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

type approvalRequest struct {
	TimesheetID int64   `json:"timesheet_id"`
	ApproverID  int64   `json:"approver_id"`
	Status      *string `json:"status"`
	Comments    *string `json:"comments"`
}

// Create は承認記録を作成します。
func (h *ApprovalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateApproval(r.Context(), approval.CreateApprovalInput{
		TimesheetID: req.TimesheetID,
		ApproverID:  req.ApproverID,
		Status:      req.Status,
		Comments:    req.Comments,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toApprovalResponse(created))
}

// List はすべての承認記録を返します。
func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListApprovals(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponses(list))
}

// ListMine は呼び出し元が承認者となっている承認記録を返します。
func (h *ApprovalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListByApprover(r.Context(), approval.ListByApproverInput{ApproverID: p.EmployeeID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponses(list))
}

// ListByTimesheet はタイムシートに対する承認記録を返します。
func (h *ApprovalHandler) ListByTimesheet(w http.ResponseWriter, r *http.Request) {
	timesheetID, err := pathID(r, "timesheetId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListByTimesheet(r.Context(), approval.ListByTimesheetInput{TimesheetID: timesheetID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponses(list))
}

// ListByApprover は承認者の承認記録を返します。
func (h *ApprovalHandler) ListByApprover(w http.ResponseWriter, r *http.Request) {
	approverID, err := pathID(r, "employeeId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListByApprover(r.Context(), approval.ListByApproverInput{ApproverID: approverID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponses(list))
}

// Get は承認記録を返します。
func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetApproval(r.Context(), approval.GetApprovalInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponse(found))
}

// Update は承認記録を更新します。タイムシートの状態は変更しません。
func (h *ApprovalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateApproval(r.Context(), approval.UpdateApprovalInput{
		ID:          id,
		TimesheetID: req.TimesheetID,
		ApproverID:  req.ApproverID,
		Status:      req.Status,
		Comments:    req.Comments,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponse(updated))
}

// Delete は承認記録を削除します。
func (h *ApprovalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteApproval(r.Context(), approval.DeleteApprovalInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
