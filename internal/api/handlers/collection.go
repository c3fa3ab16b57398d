package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
)

// CollectionHandler handles collection and profile requests. Every route
// requires a session.
type CollectionHandler struct {
	facade CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(facade CollectionService) *CollectionHandler {
	return &CollectionHandler{facade: facade}
}

// AddCardRequest adds a catalog card to the collection.
type AddCardRequest struct {
	CardID string `json:"cardId"`
}

// GetCollection returns the enriched collection, loading it on first use.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	snap, err := h.facade.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, snap)
}

// RefreshCollection reloads the collection from the backend.
func (h *CollectionHandler) RefreshCollection(w http.ResponseWriter, r *http.Request) {
	snap, err := h.facade.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, snap)
}

// AddCard adds a card to the collection.
func (h *CollectionHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCardRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if strings.TrimSpace(req.CardID) == "" {
		response.BadRequest(w, errors.New("cardId is required"))
		return
	}

	entry, err := h.facade.Add(r.Context(), strings.TrimSpace(req.CardID))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, entry)
}

// RemoveEntry deletes a collection entry.
func (h *CollectionHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		response.BadRequest(w, errors.New("invalid entry ID"))
		return
	}

	if err := h.facade.Remove(r.Context(), entryID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

// GetValue returns the collection's total market value.
func (h *CollectionHandler) GetValue(w http.ResponseWriter, r *http.Request) {
	value, err := h.facade.Value(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, value)
}

// GetSeries returns card counts per series.
func (h *CollectionHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.facade.Series(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, series)
}

// GetSpend returns money spent over time. ?mode=cumulative gives the
// running total.
func (h *CollectionHandler) GetSpend(w http.ResponseWriter, r *http.Request) {
	days, err := h.facade.Spend(r.Context(), r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, days)
}

// GetSeriesChart renders the cards-per-series chart as an HTML page.
func (h *CollectionHandler) GetSeriesChart(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	if err := h.facade.RenderSeriesChart(r.Context(), &page); err != nil {
		writeError(w, err)
		return
	}

	response.HTML(w, page.Bytes())
}

// GetSpendChart renders the spend chart as an HTML page.
func (h *CollectionHandler) GetSpendChart(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	if err := h.facade.RenderSpendChart(r.Context(), &page, r.URL.Query().Get("mode")); err != nil {
		writeError(w, err)
		return
	}

	response.HTML(w, page.Bytes())
}

// ExportCollection downloads the collection as CSV or JSON (?format=).
func (h *CollectionHandler) ExportCollection(w http.ResponseWriter, r *http.Request) {
	var body bytes.Buffer
	format, err := h.facade.Export(r.Context(), &body, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Attachment(w, format.ContentType(), "collection."+string(format), body.Bytes())
}

// GetProfile returns the user's profile.
func (h *CollectionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.facade.Profile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, profile)
}
