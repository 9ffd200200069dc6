// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package films

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Extractor turns a raw dataset into the records filmed in a given year.
// Implementations own the knowledge of one dataset layout.
type Extractor interface {
	Extract(r io.Reader, year string) ([]Record, *ExtractMetrics, error)
}

// ExtractMetrics tracks statistics about one extraction pass.
type ExtractMetrics struct {
	Lines          int // lines read
	Candidates     int // quoted lines containing the year token
	Extracted      int // records produced
	FalsePositives int // year token found outside the year column
	Malformed      int // candidates that don't follow the column layout
}

// Merge combines two ExtractMetrics.
func (m *ExtractMetrics) Merge(o *ExtractMetrics) *ExtractMetrics {
	if o == nil {
		return m
	}

	m.Lines += o.Lines
	m.Candidates += o.Candidates
	m.Extracted += o.Extracted
	m.FalsePositives += o.FalsePositives
	m.Malformed += o.Malformed

	return m
}

const (
	titleQuote = '"'
	// the year starts after `" (`
	yearOffset = 3
	yearWidth  = 4

	maxLineSize = 1024 * 1024
)

type lineStatus int

const (
	lineOK lineStatus = iota
	lineMalformed
	lineYearMismatch
)

// ListExtractor reads the IMDb locations.list layout:
//
//	"Title" (2010) {Episode annotation}	Street, City, Country (Studio note)
//
// The year is taken by position, right after the closing quote of the title.
type ListExtractor struct{}

// NewListExtractor creates an extractor for the locations.list layout.
func NewListExtractor() *ListExtractor {
	return &ListExtractor{}
}

// Extract scans r line by line and returns, in input order, the records whose
// year column equals year.
func (e *ListExtractor) Extract(r io.Reader, year string) ([]Record, *ExtractMetrics, error) {
	metrics := &ExtractMetrics{}
	records := make([]Record, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		metrics.Lines++

		// cheap pre-filter, most of the dataset is discarded here
		if len(line) == 0 || line[0] != titleQuote || !strings.Contains(line, year) {
			continue
		}

		metrics.Candidates++

		record, status := parseLine(line, year)
		switch status {
		case lineOK:
			records = append(records, record)
			metrics.Extracted++
		case lineYearMismatch:
			metrics.FalsePositives++
		case lineMalformed:
			metrics.Malformed++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, metrics, fmt.Errorf("reading dataset: %w", err)
	}

	return records, metrics, nil
}

// ParseLine applies the locations.list column rules to a single line. It
// returns false when the line is not a record for the given year.
func ParseLine(line, year string) (Record, bool) {
	record, status := parseLine(line, year)

	return record, status == lineOK
}

func parseLine(line, year string) (Record, lineStatus) {
	if len(line) == 0 || line[0] != titleQuote {
		return Record{}, lineMalformed
	}

	closing := strings.LastIndexByte(line, titleQuote)
	if closing == 0 {
		return Record{}, lineMalformed
	}

	start := closing + yearOffset
	end := start + yearWidth

	if end > len(line) {
		return Record{}, lineMalformed
	}

	yearField := line[start:end]
	if !isYear(yearField) {
		return Record{}, lineMalformed
	}

	if yearField != year {
		return Record{}, lineYearMismatch
	}

	return Record{
		Title:    line[1:closing],
		Year:     yearField,
		Location: cleanLocation(skipYearSuffix(line[end:])),
	}, lineOK
}

// skipYearSuffix drops the rest of the year column: `)` and, for titles
// sharing a year, the `/I)` disambiguator.
func skipYearSuffix(rest string) string {
	switch {
	case strings.HasPrefix(rest, ")"):
		return rest[1:]
	case strings.HasPrefix(rest, "/"):
		if i := strings.IndexByte(rest, ')'); i >= 0 {
			return rest[i+1:]
		}
	}

	return rest
}

// cleanLocation strips the `{...}` annotation block and the trailing
// parenthetical notes.
func cleanLocation(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.IndexByte(s, '{'); i >= 0 {
		if j := strings.IndexByte(s[i:], '}'); j >= 0 {
			s = strings.TrimSpace(s[i+j+1:])
		} else {
			s = strings.TrimSpace(s[:i])
		}
	}

	if i := strings.IndexByte(s, '('); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	return s
}

func isYear(s string) bool {
	if len(s) != yearWidth {
		return false
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
