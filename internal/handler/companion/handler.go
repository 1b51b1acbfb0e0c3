package companion

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/handler/httperr"
	companionModel "github.com/companionhq/companion/backend/internal/model/companion"
	companionService "github.com/companionhq/companion/backend/internal/service/companion"
	"github.com/companionhq/companion/backend/pkg/utils"
)

// Handler exposes companion authoring and browsing over HTTP.
type Handler struct {
	svc *companionService.Service
}

// New creates the companion handler.
func New(svc *companionService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the companion and category routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)

	r.Route("/companions", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{companionID}", h.handleGet)
		r.Patch("/{companionID}", h.handleUpdate)
		r.Delete("/{companionID}", h.handleDelete)
	})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := companionModel.Filter{
		CategoryID: r.URL.Query().Get("categoryId"),
		Name:       r.URL.Query().Get("name"),
	}

	companions, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, companions)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "companionID"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var def companionModel.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callerID := auth.CallerIDFromContext(r.Context())
	created, err := h.svc.CreateOrUpdate(r.Context(), callerID, def, "")
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var def companionModel.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callerID := auth.CallerIDFromContext(r.Context())
	updated, err := h.svc.CreateOrUpdate(r.Context(), callerID, def, chi.URLParam(r, "companionID"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	callerID := auth.CallerIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), callerID, chi.URLParam(r, "companionID")); err != nil {
		httperr.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
