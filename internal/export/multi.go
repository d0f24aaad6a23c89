package export

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

// ReceiptExporter matches services.ReceiptExporter.
type ReceiptExporter interface {
	Export(ctx context.Context, sale models.Sale) (string, error)
}

// MultiExporter sends each receipt to every sink in order. A failing sink
// does not stop the others.
type MultiExporter struct {
	sinks []ReceiptExporter
}

// Multi combines sinks; nil entries are ignored.
func Multi(sinks ...ReceiptExporter) *MultiExporter {
	m := &MultiExporter{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Export returns the successful locations joined with ", " and every sink
// error combined.
func (m *MultiExporter) Export(ctx context.Context, sale models.Sale) (string, error) {
	var (
		locations []string
		errs      error
	)
	for _, s := range m.sinks {
		loc, err := s.Export(ctx, sale)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if loc != "" {
			locations = append(locations, loc)
		}
	}
	return strings.Join(locations, ", "), errs
}
