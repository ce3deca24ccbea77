package handler

import (
	"net/http"
	"strings"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

// UserHandler はアカウント参照と有効・無効の切り替えを扱います。
type UserHandler struct {
	users user.UseCase
}

// NewUserHandler は UserHandler を生成します。
func NewUserHandler(users user.UseCase) *UserHandler {
	return &UserHandler{users: users}
}

type updateUserStatusRequest struct {
	Status string `json:"status"`
}

// Me は呼び出し元のアカウントを返します。
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.users.GetUser(r.Context(), user.GetUserInput{ID: p.UserID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toUserResponse(found))
}

// Get はアカウントを返します。
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.users.GetUser(r.Context(), user.GetUserInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toUserResponse(found))
}

// UpdateStatus はアカウントを有効化または無効化します。
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateUserStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.users.UpdateStatus(r.Context(), user.UpdateStatusInput{ID: id, Status: user.Status(strings.ToLower(strings.TrimSpace(req.Status)))})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toUserResponse(updated))
}
