// Package listings exposes the persisted listing set over the status API.
package listings

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"funda-listing-notifier/internal/pkg/render"
	"funda-listing-notifier/internal/router"
	"funda-listing-notifier/internal/store"
)

type ListHandler struct {
	store  *store.ListingStore
	logger *zap.SugaredLogger
}

func NewListHandler(st *store.ListingStore, logger *zap.SugaredLogger) *ListHandler {
	return &ListHandler{store: st, logger: logger}
}

func (h *ListHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/listings", h.Handle)
}

type listResponse struct {
	Listings []store.Listing `json:"listings"`
	Count    int             `json:"count"`
}

func (h *ListHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var notified *bool
	if raw := strings.TrimSpace(r.URL.Query().Get("notified")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			render.ChiErr(w, http.StatusBadRequest, "notified must be true or false")
			return
		}
		notified = &b
	}

	out, err := h.store.List(r.Context(), notified)
	if err != nil {
		h.logger.Errorw("listings_list_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to list listings")
		return
	}
	if out == nil {
		out = []store.Listing{}
	}

	render.ChiJSON(w, http.StatusOK, listResponse{Listings: out, Count: len(out)})
}

var _ router.Handler = (*ListHandler)(nil)
