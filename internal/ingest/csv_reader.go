package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one data row keyed by header. Line counts the header as line 1.
type Record struct {
	Line   int
	Fields map[string]string
	Err    error
}

type CSVReader struct {
	reader io.Reader
}

func NewCSVReader(reader io.Reader) *CSVReader {
	return &CSVReader{
		reader: reader,
	}
}

// Read streams records until the input ends or ctx is cancelled. Malformed rows are sent
// with Err set and reading continues. Any other read error is sent once and ends the stream.
func (cr *CSVReader) Read(ctx context.Context) (<-chan Record, error) {
	csvReader := csv.NewReader(cr.reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make(chan Record)
	go func() {
		defer close(out)

		for line := 2; ; line++ {
			row, err := csvReader.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			var parseErr *csv.ParseError
			rec := Record{Line: line}
			fatal := err != nil && !errors.As(err, &parseErr)
			switch {
			case err != nil:
				rec.Err = err
			case len(row) != len(headers):
				rec.Err = fmt.Errorf("expected %d columns, got %d", len(headers), len(row))
			default:
				rec.Fields = make(map[string]string, len(headers))
				for i, h := range headers {
					rec.Fields[h] = strings.TrimSpace(row[i])
				}
			}

			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
			if fatal {
				return
			}
		}
	}()

	return out, nil
}
