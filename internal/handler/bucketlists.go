package handler

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/TooLazyToCreate/bucketlist/internal/service"
	"github.com/go-chi/chi/v5"
)

type nameRequest struct {
	Name string `json:"name"`
}

type itemUpdateRequest struct {
	Name *string `json:"name"`
	Done *bool   `json:"done"`
}

func (h *Handler) HandleCreateBucketlist(w http.ResponseWriter, req *http.Request) {
	var in nameRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}
	id, _ := IdentityFrom(req.Context())

	list, err := h.lists.Create(req.Context(), id.UserID, in.Name)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *Handler) HandleListBucketlists(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())

	lists, err := h.lists.List(req.Context(), id.UserID, req.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *Handler) HandleGetBucketlist(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())

	list, err := h.lists.Get(req.Context(), id.UserID, chi.URLParam(req, "id"))
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleRenameBucketlist(w http.ResponseWriter, req *http.Request) {
	var in nameRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}
	id, _ := IdentityFrom(req.Context())

	list, err := h.lists.Rename(req.Context(), id.UserID, chi.URLParam(req, "id"), in.Name)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleDeleteBucketlist(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())
	listID := chi.URLParam(req, "id")

	if err := h.lists.Delete(req.Context(), id.UserID, listID); err != nil {
		h.writeError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "bucketlist "+listID+" deleted successfully")
}

func (h *Handler) HandleCreateItem(w http.ResponseWriter, req *http.Request) {
	var in nameRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}
	id, _ := IdentityFrom(req.Context())

	item, err := h.lists.AddItem(req.Context(), id.UserID, chi.URLParam(req, "id"), in.Name)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			writeMessage(w, http.StatusConflict, "That item already exists")
			return
		}
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())

	items, err := h.lists.ListItems(req.Context(), id.UserID, chi.URLParam(req, "id"))
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, req *http.Request) {
	var in itemUpdateRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}
	id, _ := IdentityFrom(req.Context())

	item, err := h.lists.UpdateItem(req.Context(), id.UserID, chi.URLParam(req, "id"), chi.URLParam(req, "item_id"),
		model.ItemPatch{Name: in.Name, Done: in.Done})
	if err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			writeMessage(w, http.StatusConflict, "That item already exists")
			return
		}
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())

	if err := h.lists.DeleteItem(req.Context(), id.UserID, chi.URLParam(req, "id"), chi.URLParam(req, "item_id")); err != nil {
		h.writeError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item deleted successfully")
}
