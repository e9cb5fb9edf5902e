// Package handler exposes the roster views to the admin dashboard:
// filtered listings, aggregate stats, CSV export, and a live snapshot
// stream.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	reghandler "technoreg/internal/registration/handler"
	"technoreg/internal/registration/models"
	"technoreg/internal/registration/store"
	"technoreg/internal/roster"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/httputil"
	"technoreg/pkg/requestcontext"
)

// Service defines the registration reads the roster needs.
type Service interface {
	List(ctx context.Context) ([]models.Registration, error)
	Watch(ctx context.Context) <-chan store.Snapshot
}

// Handler wires roster endpoints to the registration read surface.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a roster handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the roster endpoints. The whole surface requires a
// session; filtering happens server-side so exports and listings agree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/roster", h.HandleList)
	r.Get("/roster/stats", h.HandleStats)
	r.Get("/roster/export", h.HandleExport)
	r.Get("/roster/watch", h.HandleWatch)
}

// querySpec extracts filter and sort parameters shared by the listing and
// export endpoints.
func querySpec(r *http.Request) (roster.FilterSpec, roster.SortKey, roster.Direction, error) {
	q := r.URL.Query()
	spec := roster.FilterSpec{
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Year:       q.Get("year"),
		Event:      q.Get("event"),
	}

	key, ok := roster.ParseSortKey(q.Get("sortBy"))
	if !ok {
		return spec, "", "", dErrors.NewField("sortBy", "unknown sort key: "+q.Get("sortBy"))
	}

	dir := roster.Direction(q.Get("sortDir"))
	switch dir {
	case "", roster.Asc:
		dir = roster.Asc
	case roster.Desc:
	default:
		return spec, "", "", dErrors.NewField("sortDir", "sortDir must be asc or desc")
	}
	return spec, key, dir, nil
}

func (h *Handler) view(r *http.Request) ([]models.Registration, error) {
	spec, key, dir, err := querySpec(r)
	if err != nil {
		return nil, err
	}
	records, err := h.service.List(r.Context())
	if err != nil {
		return nil, err
	}
	return roster.Sort(roster.Filter(records, spec), key, dir), nil
}

// HandleList handles GET /api/admin/roster.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.view(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reghandler.FromRegistrations(records))
}

// HandleStats handles GET /api/admin/roster/stats. Stats always cover the
// full roster, never a filtered view.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roster.Aggregate(records))
}

// HandleExport handles GET /api/admin/roster/export, honoring the same
// filter and sort parameters as the listing.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.view(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filename := roster.ExportFilename(requestcontext.Now(ctx))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := roster.ExportCSV(w, records); err != nil {
		h.logger.WarnContext(ctx, "csv export interrupted",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}

	h.logger.InfoContext(ctx, "roster exported",
		"request_id", requestcontext.RequestID(ctx),
		"rows", len(records),
		"filename", filename,
	)
}

// HandleWatch handles GET /api/admin/roster/watch as a server-sent event
// stream. Each event carries the full roster snapshot; clients replace
// wholesale rather than patching, so a dropped intermediate snapshot is
// harmless.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snapshot := range h.service.Watch(ctx) {
		payload, err := json.Marshal(struct {
			Version       uint64                            `json:"version"`
			Registrations []reghandler.RegistrationResponse `json:"registrations"`
		}{
			Version:       snapshot.Version,
			Registrations: reghandler.FromRegistrations(snapshot.Registrations),
		})
		if err != nil {
			h.logger.ErrorContext(ctx, "snapshot marshal failed", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
