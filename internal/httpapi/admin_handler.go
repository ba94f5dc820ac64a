package httpapi

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// AdminListOrders lists every order with its items and customer, oldest
// first. ?filter=unassigned|assigned narrows the list by courier number.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		out []order.AdminView
		err error
	)
	switch r.URL.Query().Get("filter") {
	case "":
		out, err = h.orders.ListForAdmin(ctx)
	case "unassigned":
		out, err = h.orders.ListUnassigned(ctx)
	case "assigned":
		out, err = h.orders.ListAssigned(ctx)
	default:
		writeError(w, http.StatusBadRequest, "unknown filter")
		return
	}
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.orders.UpdateStatus(ctx, orderID, body.Status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) OrderInvoice(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	doc, err := h.courier.Invoice(ctx, orderID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writePDF(w, doc)
}

func (h *Handler) AllInvoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	doc, err := h.courier.GenerateAll(ctx)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writePDF(w, doc)
}

// UploadCourierIDs accepts either a multipart form with a "file" field or a
// raw text/csv body.
func (h *Handler) UploadCourierIDs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	src, closeFn, err := h.uploadedFile(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeAppError(w, h.logger, err)
		return
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.courier.StageFromCSV(ctx, sessionFrom(r).UserID, src)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) uploadedFile(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, apperror.Validation("invalid upload")
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, apperror.Validation("please choose a CSV file")
	}
	return f, func() { _ = f.Close() }, nil
}

func (h *Handler) PendingAssignments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": h.courier.Pending(sessionFrom(r).UserID),
	})
}

func (h *Handler) DiscardAssignments(w http.ResponseWriter, r *http.Request) {
	if err := h.courier.Discard(sessionFrom(r).UserID); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyAssignments writes the staged batch and answers with the merged
// invoice document. The notice travels in the X-Notice header and the
// archived copy, when there is one, in X-Archive-Key.
func (h *Handler) ApplyAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	adminID := sessionFrom(r).UserID
	res, err := h.courier.Apply(ctx, adminID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	h.logger.Info("courier numbers applied", zap.String("admin_id", adminID), zap.Int("assigned", len(res.Assigned)))
	w.Header().Set("X-Notice", res.Notice)
	w.Header().Set("X-Courier-Assigned", strconv.Itoa(len(res.Assigned)))
	if res.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", res.ArchiveKey)
	}
	writePDF(w, res.Document)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out, err := h.identity.ListProfiles(ctx)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
