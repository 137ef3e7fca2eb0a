package series

import (
	"testing"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourMonths() models.Grid {
	return models.Grid{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31), day(2024, 4, 30)}
}

func TestAssembleKeepsRowsWithOneComposite(t *testing.T) {
	grid := fourMonths()
	us := ser(6, 6, 6, 7)
	ez := ser(4, 5, nil, 6)
	m2, err := Aggregate(us, ez)
	require.NoError(t, err)
	assert.Equal(t, ser(10, 11, 6, 13), m2)

	assets := ser(nil, nil, nil, nil)
	price := ser(nil, 40000, 41000, nil)
	ratio := ser(nil, nil, nil, nil)

	rows, err := Assemble(grid, m2, assets, price, ratio)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, grid[2], rows[2].Date)
	assert.False(t, rows[0].Price.OK)
	assert.Equal(t, models.Some(40000), rows[1].Get(models.ColPrice))
}

func TestAssembleDropsRowsWithBothCompositesUndefined(t *testing.T) {
	grid := fourMonths()
	m2, err := Aggregate(ser(1, 2, nil, 4), ser(nil, 1, nil, 1))
	require.NoError(t, err)
	assets, err := Aggregate(ser(7, nil, nil, 8))
	require.NoError(t, err)

	rows, err := Assemble(grid, m2, assets, blank(grid), blank(grid))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	dates := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		dates = append(dates, r.Date)
	}
	assert.Equal(t, []time.Time{grid[0], grid[1], grid[3]}, dates)
}

func TestAssembleShiftedColumnDrivesDropping(t *testing.T) {
	grid := fourMonths()
	m2 := Shift(ser(1, 2, 3, 4), 2)
	rows, err := Assemble(grid, m2, blank(grid), blank(grid), blank(grid))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.Some(1), rows[0].GlobalM2)
	assert.Equal(t, grid[2], rows[0].Date)
}

func TestAssembleEmpty(t *testing.T) {
	grid := fourMonths()
	_, err := Assemble(grid, blank(grid), blank(grid), blank(grid), blank(grid))
	assert.ErrorIs(t, err, models.ErrEmptyResult)
}

func TestAssembleLengthMismatch(t *testing.T) {
	grid := fourMonths()
	_, err := Assemble(grid, ser(1), blank(grid), blank(grid), blank(grid))
	assert.Error(t, err)
}
