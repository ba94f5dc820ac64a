package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

var placedAt = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func sampleOrder(id string) order.Order {
	return order.Order{
		ID:             id,
		BillingName:    "Ada Lovelace",
		BillingPhone:   "555-0100",
		BillingAddress: "1 Main St, Springfield, IL - 62704",
		BillingCity:    "Springfield",
		BillingState:   "IL",
		BillingPincode: "62704",
		CourierNo:      "TRK-1",
		Status:         order.StatusProcessing,
		TotalAmount:    decimal.RequireFromString("45.48"),
		CreatedAt:      placedAt,
		Items: []order.Item{
			{ProductName: "Linen Shirt", ProductPrice: decimal.RequireFromString("19.99"), Quantity: 2},
			{ProductName: "Canvas Tote", ProductPrice: decimal.RequireFromString("5.5"), Quantity: 1},
		},
	}
}

func TestLayout(t *testing.T) {
	p := Layout(sampleOrder("o-1"), "$")

	assert.Equal(t, []string{"Order ID: o-1", "Date: 2024-03-09", "Courier No: TRK-1"}, p.Header)
	assert.Equal(t, []string{
		"Name: Ada Lovelace",
		"Phone: 555-0100",
		"Address: 1 Main St, Springfield, IL - 62704",
		"City: Springfield",
		"State: IL",
		"Pincode: 62704",
	}, p.Customer)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, Row{Item: "Linen Shirt", Qty: "2", Price: "$19.99", Total: "$39.98"}, p.Rows[0])
	assert.Equal(t, Row{Item: "Canvas Tote", Qty: "1", Price: "$5.50", Total: "$5.50"}, p.Rows[1])
	assert.Equal(t, "Total: $45.48", p.Total)
}

func TestLayout_OmitsMissingAddressParts(t *testing.T) {
	o := sampleOrder("o-2")
	o.BillingCity, o.BillingPincode = "", ""
	o.CourierNo = ""

	p := Layout(o, "$")
	assert.Equal(t, "Courier No: N/A", p.Header[2])
	assert.Equal(t, []string{
		"Name: Ada Lovelace",
		"Phone: 555-0100",
		"Address: 1 Main St, Springfield, IL - 62704",
		"State: IL",
	}, p.Customer)
}

func TestLayout_NoItems(t *testing.T) {
	o := sampleOrder("o-3")
	o.Items = nil
	o.TotalAmount = decimal.Zero

	p := Layout(o, "")
	assert.Empty(t, p.Rows)
	assert.Equal(t, "Total: 0.00", p.Total)
}

func TestLayout_TotalComesFromOrder(t *testing.T) {
	o := sampleOrder("o-4")
	o.TotalAmount = decimal.RequireFromString("40.00")

	assert.Equal(t, "Total: $40.00", Layout(o, "$").Total)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "invoice-o-1.pdf", SingleFilename("o-1"))
	assert.Equal(t, "invoices-2024-03-09.pdf", BatchFilename(placedAt))
	assert.Equal(t, "all-invoices.pdf", AllFilename)
}

func TestRenderInvoice(t *testing.T) {
	r := NewRenderer("$", nil, WithCompression(false))

	doc, err := r.RenderInvoice(sampleOrder("o-1"))
	require.NoError(t, err)

	assert.Equal(t, "invoice-o-1.pdf", doc.Filename)
	assert.Equal(t, 1, doc.Pages)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Contains(t, string(doc.Data), "INVOICE")
	assert.Contains(t, string(doc.Data), "Courier No: TRK-1")
	assert.Contains(t, string(doc.Data), "Total: $45.48")
}

func TestRenderInvoice_Deterministic(t *testing.T) {
	r := NewRenderer("$", nil)

	first, err := r.RenderInvoice(sampleOrder("o-1"))
	require.NoError(t, err)
	second, err := r.RenderInvoice(sampleOrder("o-1"))
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestRenderMerged_OnePagePerOrder(t *testing.T) {
	r := NewRenderer("$", nil, WithCompression(false))

	doc, err := r.RenderMerged(BatchFilename(placedAt), []order.Order{sampleOrder("o-1"), sampleOrder("o-2"), sampleOrder("o-3")})
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Pages)
	first := bytes.Index(doc.Data, []byte("Order ID: o-1"))
	second := bytes.Index(doc.Data, []byte("Order ID: o-2"))
	third := bytes.Index(doc.Data, []byte("Order ID: o-3"))
	assert.True(t, first >= 0 && second > first && third > second)
}

func TestRenderMerged_CountsOverflowPages(t *testing.T) {
	long := sampleOrder("order-long")
	long.Items = nil
	for i := 0; i < 40; i++ {
		long.Items = append(long.Items, order.Item{
			ProductName:  fmt.Sprintf("Item %d", i),
			ProductPrice: decimal.RequireFromString("1.00"),
			Quantity:     1,
		})
	}

	single, err := NewRenderer("$", nil, WithCompression(false)).RenderInvoice(long)
	require.NoError(t, err)
	assert.Greater(t, single.Pages, 1)

	merged, err := NewRenderer("$", nil, WithCompression(false)).RenderMerged(AllFilename, []order.Order{long, sampleOrder("order-short")})
	require.NoError(t, err)
	assert.Equal(t, single.Pages+1, merged.Pages)
}

func TestRenderMerged_Empty(t *testing.T) {
	_, err := NewRenderer("$", nil).RenderMerged(AllFilename, nil)
	assert.ErrorIs(t, err, ErrNoOrders)
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func fixedArchive(t *testing.T, putter ObjectPutter) *S3Archive {
	a := NewS3ArchiveWithClient(putter, "invoices-bucket", zaptest.NewLogger(t))
	a.now = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC) }
	n := 0
	a.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return a
}

func TestS3Archive(t *testing.T) {
	putter := &fakePutter{}
	a := fixedArchive(t, putter)

	key, err := a.Archive(context.Background(), &Document{Filename: "invoices-2024-03-09.pdf", Data: []byte("%PDF-1.3")})
	require.NoError(t, err)

	assert.Equal(t, "invoices/2024-03-09/id-1-invoices-2024-03-09.pdf", key)
	assert.Equal(t, key, aws.ToString(putter.in.Key))
	assert.Equal(t, "invoices-bucket", aws.ToString(putter.in.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(putter.in.ContentType))
	assert.Equal(t, []byte("%PDF-1.3"), putter.body)
}

func TestS3Archive_SameFilenameGetsNewKey(t *testing.T) {
	a := NewS3ArchiveWithClient(&fakePutter{}, "invoices-bucket", zaptest.NewLogger(t))
	doc := &Document{Filename: AllFilename, Data: []byte("%PDF-1.3")}

	first, err := a.Archive(context.Background(), doc)
	require.NoError(t, err)
	second, err := a.Archive(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(first, "-"+AllFilename))
}

func TestS3Archive_Error(t *testing.T) {
	a := NewS3ArchiveWithClient(&fakePutter{err: errors.New("access denied")}, "b", zaptest.NewLogger(t))

	_, err := a.Archive(context.Background(), &Document{Filename: "x.pdf"})
	assert.ErrorContains(t, err, "access denied")
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", endpointURL("s3.example.com"))
	assert.Equal(t, "http://localhost:9000", endpointURL("http://localhost:9000"))
}
