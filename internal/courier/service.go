// Package courier stages courier tracking numbers from CSV uploads, applies
// them to unassigned orders and produces the batch invoices.
package courier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type Orders interface {
	Get(ctx context.Context, orderID string) (order.Order, error)
	ListUnassigned(ctx context.Context) ([]order.AdminView, error)
	ListAssigned(ctx context.Context) ([]order.AdminView, error)
	ListByIDs(ctx context.Context, ids []string) ([]order.AdminView, error)
	AssignCourierNumbers(ctx context.Context, assignments []order.Assignment) error
}

type Publisher interface {
	PublishCourierAssigned(ctx context.Context, adminID string, assignments []order.Assignment) error
}

type StageResult struct {
	Pending    []order.Assignment `json:"pending"`
	Parsed     int                `json:"parsed"`
	Unassigned int                `json:"unassigned"`
	Notice     string             `json:"notice"`
}

type ApplyResult struct {
	Assigned   []order.Assignment `json:"assigned"`
	Document   *invoice.Document  `json:"-"`
	ArchiveKey string             `json:"archiveKey,omitempty"`
	Notice     string             `json:"notice"`
}

type Service struct {
	orders    Orders
	buffers   *Buffers
	renderer  *invoice.Renderer
	archive   invoice.Archiver
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewService builds the courier workflow. archive may be nil.
func NewService(
	orders Orders,
	buffers *Buffers,
	renderer *invoice.Renderer,
	archive invoice.Archiver,
	publisher Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:    orders,
		buffers:   buffers,
		renderer:  renderer,
		archive:   archive,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// StageFromCSV pairs the uploaded courier ids with unassigned orders, oldest
// first, and keeps the result in the admin's buffer. Nothing is written.
func (s *Service) StageFromCSV(ctx context.Context, adminID string, r io.Reader) (StageResult, error) {
	ids, err := ParseCourierIDs(r)
	if err != nil {
		if errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrMissingColumn) {
			return StageResult{}, apperror.Validation("CSV must have a courier_id column")
		}
		return StageResult{}, apperror.Validation("could not read CSV file")
	}
	return s.Stage(ctx, adminID, ids)
}

func (s *Service) Stage(ctx context.Context, adminID string, courierIDs []string) (StageResult, error) {
	if !s.buffers.Acquire(adminID) {
		return StageResult{}, apperror.Conflict("a courier batch is already in progress")
	}
	defer s.buffers.Release(adminID)

	res := StageResult{Pending: []order.Assignment{}, Parsed: len(courierIDs)}
	if len(courierIDs) == 0 {
		res.Notice = "no courier IDs found in file"
		return res, nil
	}

	unassigned, err := s.orders.ListUnassigned(ctx)
	if err != nil {
		return StageResult{}, err
	}
	res.Unassigned = len(unassigned)
	if len(unassigned) == 0 {
		res.Notice = "no unassigned orders found"
		return res, nil
	}

	orderIDs := make([]string, 0, len(unassigned))
	for _, v := range unassigned {
		orderIDs = append(orderIDs, v.ID)
	}

	res.Pending = Pair(orderIDs, courierIDs)
	s.buffers.Put(adminID, res.Pending)
	res.Notice = fmt.Sprintf("%d courier numbers ready to assign", len(res.Pending))

	s.logger.Info("courier batch staged",
		zap.String("admin_id", adminID),
		zap.Int("courier_ids", len(courierIDs)),
		zap.Int("unassigned", len(unassigned)),
		zap.Int("pending", len(res.Pending)),
	)
	return res, nil
}

func (s *Service) Pending(adminID string) []order.Assignment {
	return s.buffers.Get(adminID)
}

func (s *Service) Discard(adminID string) error {
	if !s.buffers.Acquire(adminID) {
		return apperror.Conflict("a courier batch is already in progress")
	}
	defer s.buffers.Release(adminID)

	s.buffers.Clear(adminID)
	return nil
}

// Apply writes the staged batch in one all-or-nothing update. On failure the
// buffer is kept so the admin can retry. On success the affected orders are
// reloaded and rendered into one merged invoice.
func (s *Service) Apply(ctx context.Context, adminID string) (ApplyResult, error) {
	if !s.buffers.Acquire(adminID) {
		return ApplyResult{}, apperror.Conflict("a courier batch is already in progress")
	}
	defer s.buffers.Release(adminID)

	pending := s.buffers.Get(adminID)
	if len(pending) == 0 {
		return ApplyResult{}, apperror.Validation("no pending courier assignments")
	}

	if err := s.orders.AssignCourierNumbers(ctx, pending); err != nil {
		s.metrics.CourierBatch(false, 0)
		s.logger.Error("courier batch failed", zap.String("admin_id", adminID), zap.Int("pending", len(pending)), zap.Error(err))
		if errors.Is(err, order.ErrAssignmentConflict) {
			return ApplyResult{}, &apperror.Error{
				Kind:    apperror.KindConflict,
				Message: "some orders already have a courier number, discard and upload again",
				Err:     err,
			}
		}
		return ApplyResult{}, apperror.Write("failed to assign courier numbers", err)
	}

	s.buffers.Clear(adminID)
	s.metrics.CourierBatch(true, len(pending))

	if err := s.publisher.PublishCourierAssigned(ctx, adminID, pending); err != nil {
		s.logger.Warn("publish courier assigned failed", zap.String("admin_id", adminID), zap.Error(err))
	}

	ids := make([]string, 0, len(pending))
	for _, a := range pending {
		ids = append(ids, a.OrderID)
	}
	views, err := s.orders.ListByIDs(ctx, ids)
	if err != nil {
		return ApplyResult{}, apperror.Internal("courier numbers assigned but invoices could not be generated", err)
	}

	doc, err := s.renderer.RenderMerged(invoice.BatchFilename(s.now()), ordersOf(views))
	if err != nil {
		return ApplyResult{}, apperror.Internal("courier numbers assigned but invoices could not be generated", err)
	}

	res := ApplyResult{
		Assigned: pending,
		Document: doc,
		Notice:   fmt.Sprintf("%d courier numbers assigned and invoices generated", len(pending)),
	}
	res.ArchiveKey = s.archiveDocument(ctx, doc)

	s.logger.Info("courier batch applied",
		zap.String("admin_id", adminID),
		zap.Int("assigned", len(pending)),
		zap.String("document", doc.Filename),
	)
	return res, nil
}

// GenerateAll renders every order that has a courier number.
func (s *Service) GenerateAll(ctx context.Context) (*invoice.Document, error) {
	views, err := s.orders.ListAssigned(ctx)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperror.NotFound("no orders with courier numbers found")
	}

	doc, err := s.renderer.RenderMerged(invoice.AllFilename, ordersOf(views))
	if err != nil {
		return nil, apperror.Internal("failed to generate invoices", err)
	}
	s.archiveDocument(ctx, doc)
	return doc, nil
}

// Invoice renders the invoice of a single order.
func (s *Service) Invoice(ctx context.Context, orderID string) (*invoice.Document, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.RenderInvoice(o)
	if err != nil {
		return nil, apperror.Internal("failed to generate invoice", err)
	}
	return doc, nil
}

func (s *Service) archiveDocument(ctx context.Context, doc *invoice.Document) string {
	if s.archive == nil {
		return ""
	}
	key, err := s.archive.Archive(ctx, doc)
	if err != nil {
		s.logger.Warn("archive invoice failed", zap.String("document", doc.Filename), zap.Error(err))
		return ""
	}
	return key
}

func ordersOf(views []order.AdminView) []order.Order {
	out := make([]order.Order, 0, len(views))
	for _, v := range views {
		out = append(out, v.Order)
	}
	return out
}
