package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
)

// CatalogHandler handles card catalog requests.
type CatalogHandler struct {
	facade CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(facade CatalogService) *CatalogHandler {
	return &CatalogHandler{facade: facade}
}

// ListSets returns every set.
func (h *CatalogHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.facade.ListSets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, sets)
}

// GetSetCards returns the cards of a set, optionally fuzzy-filtered by
// name with ?q=.
func (h *CatalogHandler) GetSetCards(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "setID")
	if setID == "" {
		response.BadRequest(w, errors.New("set ID is required"))
		return
	}

	cards, err := h.facade.SetCards(r.Context(), setID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, cards)
}

// SearchCards searches the catalog by name with ?name=.
func (h *CatalogHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		response.BadRequest(w, errors.New("name query parameter is required"))
		return
	}

	cards, err := h.facade.SearchCards(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, cards)
}

// GetCard returns one card with its market price.
func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	detail, err := h.facade.CardDetail(r.Context(), cardID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, detail)
}
