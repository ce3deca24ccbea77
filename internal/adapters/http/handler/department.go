package handler

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
)

// DepartmentHandler は部署マスタの REST エンドポイントです。
type DepartmentHandler struct {
	svc department.UseCase
}

// NewDepartmentHandler は DepartmentHandler を生成します。
func NewDepartmentHandler(svc department.UseCase) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

type createDepartmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateDepartmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create は部署を作成します。
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDepartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateDepartment(r.Context(), department.CreateDepartmentInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDepartmentResponse(created))
}

// List はすべての部署を返します。
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	out := make([]departmentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDepartmentResponse(d))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get は部署を返します。
func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetDepartment(r.Context(), department.GetDepartmentInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDepartmentResponse(found))
}

// Update は部署を更新します。
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateDepartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateDepartment(r.Context(), department.UpdateDepartmentInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDepartmentResponse(updated))
}

// Delete は部署を削除します。
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteDepartment(r.Context(), department.DeleteDepartmentInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
