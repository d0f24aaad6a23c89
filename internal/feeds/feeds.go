// Package feeds reads seat and product CSV feeds into candidate models.
// Records are parsed lazily; a malformed record yields an error for that
// record and reading continues with the next one. Candidates still go
// through the services' own validation before they are stored.
//
// Seat feed columns:    id,status,occupancy,kind
// Product feed columns: name,stock,kind,price
//
// A header row is optional. Enum values may use the legacy Spanish
// spellings (ACTIVA, LIBRE, VIP, BEBIDA, ...).
package feeds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/shopspring/decimal"
)

// Seats parses a seat feed.
func Seats(r io.Reader) iter.Seq2[models.Seat, error] {
	return parse(r, 4, []string{"id"}, parseSeat)
}

// Products parses a product feed. Products get their ids on save.
func Products(r io.Reader) iter.Seq2[models.Product, error] {
	return parse(r, 4, []string{"name", "nombre"}, parseProduct)
}

func parseSeat(f []string) (models.Seat, error) {
	var (
		seat models.Seat
		err  error
	)
	if seat.ID, err = models.ParseSeatID(f[0]); err != nil {
		return seat, err
	}
	if seat.Status, err = models.ParseSeatStatus(f[1]); err != nil {
		return seat, err
	}
	if seat.Occupancy, err = models.ParseOccupancy(f[2]); err != nil {
		return seat, err
	}
	if seat.Kind, err = models.ParseSeatKind(f[3]); err != nil {
		return seat, err
	}
	return seat, nil
}

func parseProduct(f []string) (models.Product, error) {
	var (
		p   models.Product
		err error
	)
	p.Name = strings.TrimSpace(f[0])
	if p.Stock, err = strconv.Atoi(strings.TrimSpace(f[1])); err != nil {
		return p, fmt.Errorf("stock %q: not an integer", f[1])
	}
	if p.Kind, err = models.ParseProductKind(f[2]); err != nil {
		return p, err
	}
	if p.Price, err = decimal.NewFromString(strings.TrimSpace(f[3])); err != nil {
		return p, fmt.Errorf("price %q: not a number", f[3])
	}
	return p, nil
}

func parse[T any](r io.Reader, fields int, header []string, convert func([]string) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		cr := csv.NewReader(r)
		cr.FieldsPerRecord = fields
		cr.TrimLeadingSpace = true
		cr.ReuseRecord = true

		first := true
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if !errors.As(err, &pe) {
					yield(zero, err)
					return
				}
				if !yield(zero, err) {
					return
				}
				first = false
				continue
			}

			line, _ := cr.FieldPos(0)
			if first {
				first = false
				if isHeader(rec[0], header) {
					continue
				}
			}

			v, err := convert(rec)
			if err != nil {
				if !yield(zero, fmt.Errorf("line %d: %w", line, err)) {
					return
				}
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func isHeader(field string, names []string) bool {
	field = strings.ToLower(strings.TrimSpace(field))
	for _, n := range names {
		if field == n {
			return true
		}
	}
	return false
}
