// Package httpapi serves the blood bank over HTTP with chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bloodbank/internal/archive"
	"bloodbank/internal/core"
	"bloodbank/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Handler exposes the service under /api/v1.
type Handler struct {
	svc      *core.Service
	archiver *archive.Archiver
	logger   core.Logger
}

// New creates a Handler. archiver may be nil, in which case the archive
// and report endpoints answer 503.
func New(svc *core.Service, archiver *archive.Archiver, logger core.Logger) *Handler {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Handler{svc: svc, archiver: archiver, logger: logger}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/donors", func(r chi.Router) {
			r.Post("/", h.handleAddDonor)
			r.Get("/", h.handleListDonors)
			r.Get("/{id}", h.handleGetDonor)
			r.Delete("/{id}", h.handleDeleteDonor)
		})
		r.Route("/recipients", func(r chi.Router) {
			r.Post("/", h.handleRequestUnit)
			r.Get("/", h.handleListRecipients)
			r.Get("/waiting", h.handleWaitingList)
			r.Get("/{id}", h.handleGetRecipient)
			r.Delete("/{id}", h.handleDeleteRecipient)
		})
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.handleListUnits)
			r.Get("/expiring", h.handleExpiringUnits)
			r.Get("/{id}", h.handleGetUnit)
			r.Post("/{id}/use", h.handleMarkUsed)
		})
		r.Get("/stock", h.handleStock)
		r.Get("/shortage", h.handleShortage)

		r.Post("/admin/sweep", h.handleSweep)
		r.Post("/admin/archives", h.handleCreateArchive)
		r.Get("/admin/archives", h.handleListArchives)
		r.Get("/reports/inventory.xlsx", h.handleInventoryReport)
	})
}

// Router builds the full router: middleware, API routes, health and, when
// non-nil, the metrics handler.
func Router(h *Handler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	h.Register(r)
	return r
}

func (h *Handler) handleAddDonor(w http.ResponseWriter, r *http.Request) {
	info, _, ok := h.decodePerson(w, r)
	if !ok {
		return
	}
	res, err := h.svc.AddDonor(r.Context(), info)
	if !h.checkPersist(r, "add donor", err) {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DonationResponse{
		Donor:        res.Donor,
		Unit:         res.Unit,
		AutoIssuedTo: res.AutoIssuedTo,
		Persisted:    err == nil,
	})
}

func (h *Handler) handleListDonors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListDonors())
}

func (h *Handler) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, found := h.svc.FindDonor(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("donor %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteDonor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.DeleteDonorByID(r.Context(), id)
	if !h.checkPersist(r, "delete donor", err) {
		writeServiceError(w, err)
		return
	}
	if !res.Found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("donor %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{RemovedUnits: res.RemovedUnits, Persisted: err == nil})
}

func (h *Handler) handleRequestUnit(w http.ResponseWriter, r *http.Request) {
	info, reason, ok := h.decodePerson(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RequestUnit(r.Context(), info, reason)
	if !h.checkPersist(r, "request unit", err) {
		writeServiceError(w, err)
		return
	}
	status := http.StatusAccepted
	if res.Issued() {
		status = http.StatusCreated
	}
	writeJSON(w, status, RequestResponse{
		Outcome:   res.Outcome,
		Recipient: res.Recipient,
		Unit:      res.Unit,
		Persisted: err == nil,
	})
}

func (h *Handler) handleListRecipients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListRecipients())
}

func (h *Handler) handleWaitingList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.WaitingList())
}

func (h *Handler) handleGetRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, found := h.svc.FindRecipient(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("recipient %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	found, err := h.svc.DeleteRecipientByID(r.Context(), id)
	if !h.checkPersist(r, "delete recipient", err) {
		writeServiceError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("recipient %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Persisted: err == nil})
}

func (h *Handler) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListUnits())
}

func (h *Handler) handleExpiringUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.UnitsExpiringSoon())
}

func (h *Handler) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, found := h.svc.FindUnit(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unit %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleMarkUsed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, err := h.svc.MarkUnitUsed(r.Context(), id)
	if !h.checkPersist(r, "mark unit used", err) {
		writeServiceError(w, err)
		return
	}
	u, _ := h.svc.FindUnit(id)
	writeJSON(w, http.StatusOK, UnitResponse{Unit: u, Persisted: err == nil})
}

func (h *Handler) handleStock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.StockByGroup())
}

func (h *Handler) handleShortage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ShortageByGroup())
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := h.svc.SweepExpired(r.Context())
	if !h.checkPersist(r, "sweep", err) {
		writeServiceError(w, err)
		return
	}
	if swept == nil {
		swept = []int{}
	}
	writeJSON(w, http.StatusOK, SweepResponse{Swept: swept, Persisted: err == nil})
}

func (h *Handler) handleCreateArchive(w http.ResponseWriter, r *http.Request) {
	if !h.archiveEnabled(w) {
		return
	}
	info, err := h.archiver.Archive(r.Context(), h.svc.Snapshot())
	if err != nil {
		h.logger.Error("archive failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleListArchives(w http.ResponseWriter, r *http.Request) {
	if !h.archiveEnabled(w) {
		return
	}
	archives, err := h.archiver.List(r.Context())
	if err != nil {
		h.logger.Error("list archives failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	reports, err := h.archiver.ListReports(r.Context())
	if err != nil {
		h.logger.Error("list reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, ArchiveList{Archives: nonNil(archives), Reports: nonNil(reports)})
}

func (h *Handler) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	inv := archive.InventoryFromService(h.svc)
	data, err := archive.RenderInventoryReport(inv)
	if err != nil {
		h.logger.Error("render report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if r.URL.Query().Get("store") == "true" {
		if !h.archiveEnabled(w) {
			return
		}
		if _, err := h.archiver.ArchiveReport(r.Context(), inv); err != nil {
			h.logger.Error("store report failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
			return
		}
	}
	w.Header().Set("Content-Type", archive.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) archiveEnabled(w http.ResponseWriter) bool {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "archive storage is not configured")
		return false
	}
	return true
}

func (h *Handler) decodePerson(w http.ResponseWriter, r *http.Request) (core.PersonInfo, string, bool) {
	var req PersonRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return core.PersonInfo{}, "", false
	}
	info, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return core.PersonInfo{}, "", false
	}
	return info, req.Reason, true
}

// checkPersist reports whether the outcome may still be returned: true for
// success and for a failed save, whose in-memory change stands.
func (h *Handler) checkPersist(r *http.Request, op string, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrPersist) {
		h.logger.Warn("change not persisted", "operation", op, "request_id", middleware.GetReqID(r.Context()), "error", err)
		return true
	}
	return false
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("id must be a positive integer, got %q", raw))
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var notFound core.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.Is(err, domain.ErrUnitNotInStock):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, Description: description})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
