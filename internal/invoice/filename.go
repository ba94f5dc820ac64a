package invoice

import "time"

const AllFilename = "all-invoices.pdf"

func SingleFilename(orderID string) string {
	return "invoice-" + orderID + ".pdf"
}

// BatchFilename names the merged document produced by a courier batch.
func BatchFilename(day time.Time) string {
	return "invoices-" + day.Format(dateLayout) + ".pdf"
}
