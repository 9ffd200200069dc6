// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"

	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Nearest"

var xlsxHeaders = []any{
	"Rank", "Title", "Year", "Location", "Latitude", "Longitude", "Distance (km)", "Bucket",
}

// WriteXLSX writes the ranked records as a spreadsheet. The reference point
// is stated in the row after the records.
func WriteXLSX(w io.Writer, ref spatial.Point, ranked []ranking.RankedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", xlsxHeaders); err != nil {
		return err
	}

	rowNum := 2

	for i, r := range ranked {
		if r.Point == nil {
			continue
		}

		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		row := []any{
			i + 1, r.Title, r.Year, r.Location,
			r.Point.Lat, r.Point.Lng,
			utils.RoundKm(r.DistanceKm), string(Classify(r.DistanceKm)),
		}

		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing row %d: %w", rowNum, err)
		}

		rowNum++
	}

	cell, _ := excelize.CoordinatesToCellName(1, rowNum+1)
	if err := sw.SetRow(cell, []any{"Reference", "", "", "", ref.Lat, ref.Lng}); err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

// SaveXLSX writes the spreadsheet to path.
func SaveXLSX(path string, ref spatial.Point, ranked []ranking.RankedRecord) error {
	return saveWith(path, func(w io.Writer) error {
		return WriteXLSX(w, ref, ranked)
	})
}
