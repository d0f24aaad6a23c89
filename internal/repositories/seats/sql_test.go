package seats

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRepository_Versions(t *testing.T) {
	repo := NewSQLRepository(newMigratedDB(t), dbx.DialectSQLite)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	v1 := models.Seat{Meta: models.NewMeta("A1", t0), Status: models.SeatActive, Occupancy: models.OccupancyFree, Kind: models.SeatVIP}
	require.NoError(t, repo.Insert(ctx, &v1))

	v2 := v1
	v2.Meta = v1.Meta.Next(t0.Add(time.Hour))
	v2.Occupancy = models.OccupancyReserved
	require.NoError(t, repo.Insert(ctx, &v2))

	b1 := models.Seat{Meta: models.NewMeta("B1", t0.Add(2*time.Hour)), Status: models.SeatOutOfService, Occupancy: models.OccupancyFree, Kind: models.SeatNormal}
	require.NoError(t, repo.Insert(ctx, &b1))

	got, err := repo.Latest(ctx, "A1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(v2, *got))

	old, err := repo.AsOf(ctx, "A1", t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.OccupancyFree, old.Occupancy)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A1", all[0].ID)
	assert.Equal(t, models.SeatOutOfService, all[1].Status)

	past, err := repo.AllAsOf(ctx, t0.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, models.OccupancyReserved, past[0].Occupancy)

	n, err := repo.CountVersions(ctx, "A1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = repo.Latest(ctx, "Z9")
	assert.ErrorIs(t, err, common.ErrNotFound)

	dup := v2
	assert.ErrorIs(t, repo.Insert(ctx, &dup), common.ErrConcurrentModification)
}
