package series

import (
	"fmt"

	"GlobalLiquidity/internal/domain/models"
)

// Assemble zips the columns into rows, dropping months where both primary
// composites are undefined. Other gaps are kept so they render as gaps.
func Assemble(grid models.Grid, m2, assets, price, ratio models.Series) ([]models.Row, error) {
	for name, s := range map[string]models.Series{
		models.ColGlobalM2:     m2,
		models.ColGlobalAssets: assets,
		models.ColPrice:        price,
		models.ColRatio:        ratio,
	} {
		if len(s) != len(grid) {
			return nil, fmt.Errorf("assemble: column %s has %d points, grid has %d", name, len(s), len(grid))
		}
	}

	rows := make([]models.Row, 0, len(grid))
	for i, t := range grid {
		if !m2[i].OK && !assets[i].OK {
			continue
		}
		rows = append(rows, models.Row{
			Date:         t,
			GlobalM2:     m2[i],
			GlobalAssets: assets[i],
			Price:        price[i],
			Ratio:        ratio[i],
		})
	}
	if len(rows) == 0 {
		return nil, models.ErrEmptyResult
	}
	return rows, nil
}
