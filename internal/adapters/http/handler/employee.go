package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
)

// EmployeeHandler は社員台帳の REST エンドポイントです。
type EmployeeHandler struct {
	svc employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

type createEmployeeRequest struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	Position     *string `json:"position"`
	DepartmentID *int64  `json:"department_id"`
	ManagerID    *int64  `json:"manager_id"`
}

type updateEmployeeRequest struct {
	FirstName    *string       `json:"first_name"`
	LastName     *string       `json:"last_name"`
	Email        *string       `json:"email"`
	Position     *string       `json:"position"`
	DepartmentID optionalInt64 `json:"department_id"`
	ManagerID    optionalInt64 `json:"manager_id"`
}

type listEmployeesResponse struct {
	Employees     []employeeResponse `json:"employees"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// optionalInt64 は項目の省略と明示的な null を区別します。
type optionalInt64 struct {
	Set   bool
	Value *int64
}

func (o *optionalInt64) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Create は社員を作成します。
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateEmployee(r.Context(), employee.CreateEmployeeInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Position:     req.Position,
		DepartmentID: req.DepartmentID,
		ManagerID:    req.ManagerID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toEmployeeResponse(created))
}

// List は社員を一覧します。department_id / manager_id で絞り込めます。
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	departmentID, err := queryID(r, "department_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	managerID, err := queryID(r, "manager_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	pageSize, err := queryPageSize(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.svc.ListEmployees(r.Context(), employee.ListEmployeesInput{
		DepartmentID: departmentID,
		ManagerID:    managerID,
		PageSize:     pageSize,
		PageToken:    r.URL.Query().Get("page_token"),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	out := make([]employeeResponse, 0, len(result.Employees))
	for _, e := range result.Employees {
		out = append(out, toEmployeeResponse(e))
	}
	respond.JSON(w, http.StatusOK, listEmployeesResponse{Employees: out, NextPageToken: result.NextPageToken})
}

// Get は社員を返します。
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEmployeeResponse(found))
}

// Update は指定された項目のみ社員情報を更新します。
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateEmployee(r.Context(), employee.UpdateEmployeeInput{
		ID:              id,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Position:        req.Position,
		DepartmentID:    req.DepartmentID.Value,
		DepartmentIDSet: req.DepartmentID.Set,
		ManagerID:       req.ManagerID.Value,
		ManagerIDSet:    req.ManagerID.Set,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEmployeeResponse(updated))
}

// Delete は社員を削除します。
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
