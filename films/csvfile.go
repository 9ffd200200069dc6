// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package films

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultCSVFile is the name of the intermediate artifact written between
// extraction and resolution.
const DefaultCSVFile = "film_locations.csv"

const csvFields = 3

// WriteCSV writes the records as headerless `title,year,location` rows.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	for _, r := range records {
		if err := cw.Write([]string{r.Title, r.Year, r.Location}); err != nil {
			return fmt.Errorf("writing record %q: %w", r.Title, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ReadCSV reads the rows written by WriteCSV, preserving their order.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvFields

	records := make([]Record, 0)

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading intermediate records: %w", err)
		}

		records = append(records, Record{Title: row[0], Year: row[1], Location: row[2]})
	}

	return records, nil
}

// SaveCSV writes the records to path, replacing any previous content.
func SaveCSV(path string, records []Record) error {
	f, err := os.Create(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}

// LoadCSV reads the records stored at path.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}
