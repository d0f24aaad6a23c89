package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

type seatJSON struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Occupancy string    `json:"occupancy"`
	Kind      string    `json:"kind"`
	Price     string    `json:"price"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type seatSnapshot struct {
	At    time.Time  `json:"at"`
	Seats []seatJSON `json:"seats"`
}

// WriteSeats encodes seats as an indented JSON snapshot taken at at.
func WriteSeats(w io.Writer, seats []models.Seat, at time.Time) error {
	snap := seatSnapshot{At: at.UTC(), Seats: make([]seatJSON, 0, len(seats))}
	for _, s := range seats {
		snap.Seats = append(snap.Seats, seatJSON{
			ID:        s.ID,
			Status:    string(s.Status),
			Occupancy: string(s.Occupancy),
			Kind:      string(s.Kind),
			Price:     s.Kind.Price().StringFixed(2),
			Version:   s.Version,
			UpdatedAt: s.UpdatedAt.UTC(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode seats: %w", err)
	}
	return nil
}

// SaveSeats writes the snapshot to <dataDir>/seats/seats_<yyyymmdd-hhmmss>.json
// and returns the file path.
func SaveSeats(dataDir string, seats []models.Seat, at time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteSeats(&buf, seats, at); err != nil {
		return "", err
	}
	name := fmt.Sprintf("seats_%s.json", at.UTC().Format("20060102-150405"))
	return writeFile(filepath.Join(dataDir, "seats"), name, buf.Bytes())
}
