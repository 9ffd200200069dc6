// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jcodagnone/filmloc/spatial"
	"github.com/uber/h3-go/v4"
)

// H3 resolutions stored with every resolved location: ~1770 km², ~36 km²
// and ~0.7 km² cells.
var h3Resolutions = []int{4, 6, 8}

// CachedLocation is one persisted geocoding outcome.
type CachedLocation struct {
	Location    string         `json:"location"`
	Resolved    bool           `json:"resolved"`
	Point       *spatial.Point `json:"point,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	H3Res4      int64          `json:"-"`
	H3Res6      int64          `json:"-"`
	H3Res8      int64          `json:"-"`
}

// NewCachedLocation converts an outcome into its persisted form.
func NewCachedLocation(location string, outcome Outcome) *CachedLocation {
	l := &CachedLocation{
		Location:  location,
		Resolved:  outcome.Resolved(),
		CreatedAt: time.Now(),
	}

	if l.Resolved {
		p := outcome.Point
		l.Point = &p
		l.Provider = outcome.Provider
		l.DisplayName = outcome.DisplayName
	}

	return l
}

// Outcome converts the persisted form back.
func (l *CachedLocation) Outcome() Outcome {
	if !l.Resolved || l.Point == nil {
		return Outcome{Status: StatusUnresolved}
	}

	return Outcome{
		Status:      StatusResolved,
		Point:       *l.Point,
		Provider:    l.Provider,
		DisplayName: l.DisplayName,
	}
}

func (l *CachedLocation) computeH3() error {
	l.H3Res4, l.H3Res6, l.H3Res8 = 0, 0, 0

	if !l.Resolved || l.Point == nil {
		return nil
	}

	latLng := h3.NewLatLng(l.Point.Lat, l.Point.Lng)

	for _, res := range h3Resolutions {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 4:
			l.H3Res4 = int64(cell)
		case 6:
			l.H3Res6 = int64(cell)
		case 8:
			l.H3Res8 = int64(cell)
		}
	}

	return nil
}

// h3Args returns the cells as query arguments, NULL for unresolved rows.
func (l *CachedLocation) h3Args() []any {
	if !l.Resolved {
		return []any{nil, nil, nil}
	}

	return []any{l.H3Res4, l.H3Res6, l.H3Res8}
}

// CellCount is the number of resolved locations inside an H3 cell.
type CellCount struct {
	Cell  int64
	Count int
}

// CellID formats the cell the way H3 tools print it.
func (c CellCount) CellID() string {
	return fmt.Sprintf("%x", c.Cell)
}

// CacheRepository persists geocoding outcomes.
type CacheRepository interface {
	CacheStore

	// CreateSchema creates the geocodes table
	CreateSchema() error

	// BulkInsert stores the locations in a single transaction
	BulkInsert(locations []*CachedLocation) error

	// Count returns the number of cached locations and how many are resolved
	Count() (total int, resolved int, err error)

	// ListSorted returns every cached location ordered by location
	ListSorted() ([]*CachedLocation, error)

	// TopCells returns the n most populated cells at the given resolution
	TopCells(res, n int) ([]CellCount, error)
}

type sqlCacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a repository over db, which must be a DuckDB
// connection.
func NewCacheRepository(db *sql.DB) CacheRepository {
	return &sqlCacheRepository{db: db}
}

func (r *sqlCacheRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocodes (
			location VARCHAR PRIMARY KEY,
			resolved BOOLEAN NOT NULL,
			lat DOUBLE,
			lng DOUBLE,
			provider VARCHAR NOT NULL DEFAULT '',
			display_name VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res4 UBIGINT,
			h3_res6 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

const upsertGeocode = `
	INSERT OR REPLACE INTO geocodes(
		location,
		resolved,
		lat,
		lng,
		provider,
		display_name,
		created_at,
		h3_res4,
		h3_res6,
		h3_res8
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (r *sqlCacheRepository) Save(location string, outcome Outcome) error {
	return r.BulkInsert([]*CachedLocation{NewCachedLocation(location, outcome)})
}

func (r *sqlCacheRepository) BulkInsert(locations []*CachedLocation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(upsertGeocode)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, l := range locations {
		if err = l.computeH3(); err != nil {
			_ = tx.Rollback()

			return err
		}

		var lat, lng any
		if l.Resolved && l.Point != nil {
			lat, lng = l.Point.Lat, l.Point.Lng
		}

		createdAt := l.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		args := append([]any{
			l.Location,
			l.Resolved && l.Point != nil,
			lat,
			lng,
			l.Provider,
			l.DisplayName,
			createdAt,
		}, l.h3Args()...)

		if _, err = stmt.Exec(args...); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("storing %q: %w", l.Location, err)
		}
	}

	return tx.Commit()
}

func (r *sqlCacheRepository) LoadAll() (map[string]Outcome, error) {
	locations, err := r.ListSorted()
	if err != nil {
		return nil, err
	}

	outcomes := make(map[string]Outcome, len(locations))
	for _, l := range locations {
		outcomes[l.Location] = l.Outcome()
	}

	return outcomes, nil
}

func (r *sqlCacheRepository) Count() (int, int, error) {
	var total, resolved int

	err := r.db.QueryRow(
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE resolved) FROM geocodes",
	).Scan(&total, &resolved)

	return total, resolved, err
}

func (r *sqlCacheRepository) ListSorted() ([]*CachedLocation, error) {
	rows, err := r.db.Query(`
		SELECT location, resolved, lat, lng, provider, display_name, created_at,
		       h3_res4, h3_res6, h3_res8
		FROM geocodes
		ORDER BY location
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]*CachedLocation, 0)

	for rows.Next() {
		l := &CachedLocation{}

		var lat, lng sql.NullFloat64

		var h3Res4, h3Res6, h3Res8 sql.NullInt64

		err := rows.Scan(
			&l.Location, &l.Resolved, &lat, &lng,
			&l.Provider, &l.DisplayName, &l.CreatedAt,
			&h3Res4, &h3Res6, &h3Res8,
		)
		if err != nil {
			return nil, err
		}

		if l.Resolved && lat.Valid && lng.Valid {
			l.Point = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		l.H3Res4 = h3Res4.Int64
		l.H3Res6 = h3Res6.Int64
		l.H3Res8 = h3Res8.Int64

		locations = append(locations, l)
	}

	return locations, rows.Err()
}

func (r *sqlCacheRepository) TopCells(res, n int) ([]CellCount, error) {
	var column string

	switch res {
	case 4, 6, 8:
		column = fmt.Sprintf("h3_res%d", res)
	default:
		return nil, fmt.Errorf("unsupported h3 resolution %d (want one of %v)", res, h3Resolutions)
	}

	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS n
		FROM geocodes
		WHERE resolved AND %[1]s IS NOT NULL
		GROUP BY %[1]s
		ORDER BY n DESC, %[1]s
		LIMIT ?
	`, column)

	rows, err := r.db.Query(query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := make([]CellCount, 0)

	for rows.Next() {
		var c CellCount
		if err := rows.Scan(&c.Cell, &c.Count); err != nil {
			return nil, err
		}

		cells = append(cells, c)
	}

	return cells, rows.Err()
}
