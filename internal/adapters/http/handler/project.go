package handler

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
)

// ProjectHandler はプロジェクトとタスクの REST エンドポイントです。
type ProjectHandler struct {
	svc project.UseCase
}

// NewProjectHandler は ProjectHandler を生成します。
func NewProjectHandler(svc project.UseCase) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ClientID    *int64  `json:"client_id"`
	ManagerID   *int64  `json:"manager_id"`
	StartDate   *Date   `json:"start_date"`
	EndDate     *Date   `json:"end_date"`
	Status      string  `json:"status"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ManagerID   *int64  `json:"manager_id"`
	StartDate   *Date   `json:"start_date"`
	EndDate     *Date   `json:"end_date"`
	Status      *string `json:"status"`
}

type createTaskRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateTaskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create はプロジェクトを作成します。
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateProject(r.Context(), project.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    req.ClientID,
		ManagerID:   req.ManagerID,
		StartDate:   fromDatePtr(req.StartDate),
		EndDate:     fromDatePtr(req.EndDate),
		Status:      req.Status,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toProjectResponse(created))
}

// List はプロジェクトを一覧します。status / manager_id で絞り込めます。
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	managerID, err := queryID(r, "manager_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListProjects(r.Context(), project.ListProjectsInput{
		Status:    queryString(r, "status"),
		ManagerID: managerID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	out := make([]projectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectResponse(p))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get はプロジェクトを返します。
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProjectResponse(found))
}

// Update はプロジェクトを更新します。
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateProject(r.Context(), project.UpdateProjectInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		StartDate:   fromDatePtr(req.StartDate),
		EndDate:     fromDatePtr(req.EndDate),
		Status:      req.Status,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProjectResponse(updated))
}

// Delete はプロジェクトを削除します。
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}

// CreateTask はプロジェクト配下にタスクを作成します。
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateTask(r.Context(), project.CreateTaskInput{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toTaskResponse(created))
}

// ListTasks はプロジェクトのタスクを返します。
func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListTasks(r.Context(), projectID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskResponse(t))
	}
	respond.JSON(w, http.StatusOK, out)
}

// GetTask はタスクを返します。
func (h *ProjectHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTaskResponse(found))
}

// UpdateTask はタスクの名称と説明を更新します。
func (h *ProjectHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateTask(r.Context(), project.UpdateTaskInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTaskResponse(updated))
}

// DeleteTask はタスクを削除します。
func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
