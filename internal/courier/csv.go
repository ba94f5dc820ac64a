package courier

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const idColumn = "courier_id"

var (
	ErrEmptyFile     = errors.New("courier file is empty")
	ErrMissingColumn = errors.New("courier file has no courier_id column")
)

// ParseCourierIDs reads courier tracking numbers from a CSV upload. The first
// row is a header and must contain a courier_id column; other columns are
// ignored. Values are trimmed and blank values skipped, file order is kept.
func ParseCourierIDs(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), idColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingColumn
	}

	ids := []string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		if id := strings.TrimSpace(rec[col]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
