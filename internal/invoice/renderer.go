package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

var ErrNoOrders = errors.New("no orders to render")

const (
	pageSize   = "A5"
	margin     = 12.0
	lineHeight = 6.0
	rowHeight  = 7.0
)

// column widths in mm; they add up to the A5 width minus both margins.
var columnWidths = [4]float64{64, 16, 22, 22}

// Document is a rendered PDF.
type Document struct {
	Filename string
	Data     []byte
	Pages    int
}

// Renderer turns orders into PDF invoices. Output is a pure function of the
// orders passed in: the document dates come from the orders themselves.
type Renderer struct {
	currency string
	compress bool
	metrics  *metrics.Metrics
}

type Option func(*Renderer)

// WithCompression toggles stream compression. Uncompressed output is easier
// to inspect in tests.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

func NewRenderer(currency string, m *metrics.Metrics, opts ...Option) *Renderer {
	r := &Renderer{currency: currency, compress: true, metrics: m}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) RenderInvoice(o order.Order) (*Document, error) {
	doc, err := r.render(SingleFilename(o.ID), []order.Order{o})
	if err != nil {
		return nil, err
	}
	r.metrics.InvoicePages("single", doc.Pages)
	return doc, nil
}

// RenderMerged renders one page per order, in the order given.
func (r *Renderer) RenderMerged(filename string, orders []order.Order) (*Document, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	doc, err := r.render(filename, orders)
	if err != nil {
		return nil, err
	}
	r.metrics.InvoicePages("merged", doc.Pages)
	return doc, nil
}

func (r *Renderer) render(filename string, orders []order.Order) (*Document, error) {
	pdf := fpdf.New("P", "mm", pageSize, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(filename, true)
	pdf.SetCreator("storefront-service", true)

	stamp := documentTime(orders)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, o := range orders {
		writePage(pdf, tr, Layout(o, r.currency))
	}

	// A long item table spills onto extra pages.
	pages := pdf.PageCount()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", filename, err)
	}
	return &Document{Filename: filename, Data: buf.Bytes(), Pages: pages}, nil
}

func writePage(pdf *fpdf.Fpdf, tr func(string) string, p Page) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, Title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range p.Header {
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, "Customer Details:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range p.Customer {
		pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range Columns {
		pdf.CellFormat(columnWidths[i], rowHeight, col, "1", 0, align(i), true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range p.Rows {
		cells := [4]string{tr(fit(pdf, row.Item, columnWidths[0]-2)), row.Qty, row.Price, row.Total}
		for i, c := range cells {
			pdf.CellFormat(columnWidths[i], rowHeight, c, "1", 0, align(i), false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(p.Total), "", 1, "R", false, 0, "")
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

// fit truncates s with an ellipsis so it fits in width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// documentTime is the newest order timestamp, so re-rendering the same
// orders yields identical bytes.
func documentTime(orders []order.Order) time.Time {
	var latest time.Time
	for _, o := range orders {
		t := o.UpdatedAt
		if t.IsZero() {
			t = o.CreatedAt
		}
		if t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return latest.UTC()
}
