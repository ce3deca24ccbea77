package handler

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
)

// ClientHandler は取引先マスタの REST エンドポイントです。
type ClientHandler struct {
	svc client.UseCase
}

// NewClientHandler は ClientHandler を生成します。
func NewClientHandler(svc client.UseCase) *ClientHandler {
	return &ClientHandler{svc: svc}
}

type createClientRequest struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	ContactEmail *string `json:"contact_email"`
}

type updateClientRequest struct {
	Name         *string `json:"name"`
	Code         *string `json:"code"`
	Status       *string `json:"status"`
	ContactEmail *string `json:"contact_email"`
}

type listClientsResponse struct {
	Clients       []clientResponse `json:"clients"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// Create は取引先を登録します。
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.svc.CreateClient(r.Context(), client.CreateClientInput{
		Name:         req.Name,
		Code:         req.Code,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toClientResponse(created))
}

// List は取引先をページ単位で返します。status で絞り込めます。
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	pageSize, err := queryPageSize(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.svc.ListClients(r.Context(), client.ListClientsInput{
		PageSize:  pageSize,
		PageToken: r.URL.Query().Get("page_token"),
		Status:    queryString(r, "status"),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	out := make([]clientResponse, 0, len(result.Clients))
	for _, c := range result.Clients {
		out = append(out, toClientResponse(c))
	}
	respond.JSON(w, http.StatusOK, listClientsResponse{Clients: out, NextPageToken: result.NextPageToken})
}

// Get は取引先を返します。
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	found, err := h.svc.GetClient(r.Context(), client.GetClientInput{ID: id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toClientResponse(found))
}

// Update は取引先を部分更新します。
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.svc.UpdateClient(r.Context(), client.UpdateClientInput{
		ID:           id,
		Name:         req.Name,
		Code:         req.Code,
		Status:       req.Status,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toClientResponse(updated))
}

// Delete は取引先を削除します。
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteClient(r.Context(), client.DeleteClientInput{ID: id}); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.NoContent(w)
}
