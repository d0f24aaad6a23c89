package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed auditorium layout: rows A–E, columns 1–7.
const (
	SeatRows    = "ABCDE"
	SeatColumns = 7
)

// SeatStatus is the operational state of a seat.
type SeatStatus string

const (
	SeatActive           SeatStatus = "ACTIVE"
	SeatUnderMaintenance SeatStatus = "UNDER_MAINTENANCE"
	SeatOutOfService     SeatStatus = "OUT_OF_SERVICE"
)

// Occupancy tells whether and how a seat is currently claimed.
type Occupancy string

const (
	OccupancyFree     Occupancy = "FREE"
	OccupancyReserved Occupancy = "RESERVED"
	OccupancyOccupied Occupancy = "OCCUPIED"
)

// SeatKind determines the fixed ticket price of a seat.
type SeatKind string

const (
	SeatVIP    SeatKind = "VIP"
	SeatNormal SeatKind = "NORMAL"
)

var seatPrices = map[SeatKind]decimal.Decimal{
	SeatVIP:    decimal.NewFromInt(8),
	SeatNormal: decimal.NewFromInt(5),
}

// Price returns the ticket price for the kind, zero for an unknown kind.
func (k SeatKind) Price() decimal.Decimal {
	return seatPrices[k]
}

// CanTransition reports whether occupancy may move from o to next.
// Only FREE→RESERVED, FREE→OCCUPIED and back to FREE are legal.
func (o Occupancy) CanTransition(next Occupancy) bool {
	switch o {
	case OccupancyFree:
		return next == OccupancyReserved || next == OccupancyOccupied
	case OccupancyReserved, OccupancyOccupied:
		return next == OccupancyFree
	default:
		return false
	}
}

// Seat is a bookable cinema seat.
type Seat struct {
	Meta
	Status    SeatStatus
	Occupancy Occupancy
	Kind      SeatKind
}

// Bookable reports whether the seat can be offered for a reservation.
func (s Seat) Bookable() bool {
	return !s.Deleted && s.Status == SeatActive && s.Occupancy == OccupancyFree
}

// Row returns the row letter of the seat.
func (s Seat) Row() byte {
	if s.ID == "" {
		return 0
	}
	return s.ID[0]
}

// Column returns the 1-based column of the seat, 0 if the ID is malformed.
func (s Seat) Column() int {
	if len(s.ID) < 2 {
		return 0
	}
	n, err := strconv.Atoi(s.ID[1:])
	if err != nil {
		return 0
	}
	return n
}

// SeatID builds the canonical ID for row and column.
func SeatID(row byte, column int) string {
	return strings.ToUpper(string(row)) + strconv.Itoa(column)
}

// ParseSeatID normalizes s to the canonical uppercase form and checks that
// it lies inside the grid. The column is plain decimal digits without sign
// or leading zero, so "A01" and "A+1" are rejected rather than folded into A1.
func ParseSeatID(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || !strings.ContainsRune(SeatRows, rune(s[0])) {
		return "", fmt.Errorf("seat %q: row must be one of %s", s, SeatRows)
	}
	digits := s[1:]
	if digits[0] == '0' || strings.Trim(digits, "0123456789") != "" {
		return "", fmt.Errorf("seat %q: column must be 1-%d", s, SeatColumns)
	}
	col, err := strconv.Atoi(digits)
	if err != nil || col < 1 || col > SeatColumns {
		return "", fmt.Errorf("seat %q: column must be 1-%d", s, SeatColumns)
	}
	return SeatID(s[0], col), nil
}

// GridSeatIDs lists every seat ID of the grid, row by row.
func GridSeatIDs() []string {
	ids := make([]string, 0, len(SeatRows)*SeatColumns)
	for i := 0; i < len(SeatRows); i++ {
		for col := 1; col <= SeatColumns; col++ {
			ids = append(ids, SeatID(SeatRows[i], col))
		}
	}
	return ids
}

// ParseSeatStatus accepts the English names and the legacy Spanish ones
// found in older seat feeds.
func ParseSeatStatus(s string) (SeatStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE", "ACTIVA":
		return SeatActive, nil
	case "UNDER_MAINTENANCE", "EN_MANTENIMIENTO":
		return SeatUnderMaintenance, nil
	case "OUT_OF_SERVICE", "FUERA_SERVICIO":
		return SeatOutOfService, nil
	}
	return "", fmt.Errorf("unknown seat status %q", s)
}

func ParseOccupancy(s string) (Occupancy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE", "LIBRE":
		return OccupancyFree, nil
	case "RESERVED", "RESERVADA":
		return OccupancyReserved, nil
	case "OCCUPIED", "OCUPADA":
		return OccupancyOccupied, nil
	}
	return "", fmt.Errorf("unknown occupancy %q", s)
}

func ParseSeatKind(s string) (SeatKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VIP":
		return SeatVIP, nil
	case "NORMAL":
		return SeatNormal, nil
	}
	return "", fmt.Errorf("unknown seat kind %q", s)
}
