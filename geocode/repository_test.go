// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) CacheRepository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewCacheRepository(db)
	require.NoError(t, repo.CreateSchema())

	return repo
}

var (
	losAngeles = Outcome{
		Status:      StatusResolved,
		Point:       spatial.Point{Lat: 34.0536909, Lng: -118.242766},
		Provider:    ProviderNominatim,
		DisplayName: "Los Angeles, California, United States",
	}
	downtown = Outcome{
		Status:   StatusResolved,
		Point:    spatial.Point{Lat: 34.0549, Lng: -118.2428},
		Provider: ProviderNominatim,
	}
)

func TestCacheRepository_SaveAndLoad(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Save("Los Angeles, California, USA", losAngeles))
	require.NoError(t, repo.Save("Atlantis", Outcome{Status: StatusUnresolved}))

	got, err := repo.LoadAll()
	require.NoError(t, err)

	assert.Equal(t, map[string]Outcome{
		"Los Angeles, California, USA": losAngeles,
		"Atlantis":                     {Status: StatusUnresolved},
	}, got)

	total, resolved, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, resolved)
}

func TestCacheRepository_SaveReplaces(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Save("LA", Outcome{Status: StatusUnresolved}))
	require.NoError(t, repo.Save("LA", losAngeles))

	got, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, losAngeles, got["LA"])
}

func TestCacheRepository_ListSorted(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Save("b", losAngeles))
	require.NoError(t, repo.Save("a", Outcome{Status: StatusUnresolved}))
	require.NoError(t, repo.Save("c", downtown))

	list, err := repo.ListSorted()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "a", list[0].Location)
	assert.Nil(t, list[0].Point)
	assert.Zero(t, list[0].H3Res4)

	assert.Equal(t, "b", list[1].Location)
	require.NotNil(t, list[1].Point)
	assert.NotZero(t, list[1].H3Res4)
	assert.NotZero(t, list[1].H3Res8)
	assert.False(t, list[1].CreatedAt.IsZero())
}

func TestCacheRepository_TopCells(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Save("Los Angeles", losAngeles))
	require.NoError(t, repo.Save("Downtown", downtown))
	require.NoError(t, repo.Save("Paris", Outcome{Status: StatusResolved, Point: spatial.Point{Lat: 48.8566, Lng: 2.3522}}))
	require.NoError(t, repo.Save("Atlantis", Outcome{Status: StatusUnresolved}))

	cells, err := repo.TopCells(4, 10)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, 2, cells[0].Count, "both Los Angeles points share a resolution 4 cell")
	assert.Equal(t, 1, cells[1].Count)
	assert.NotEmpty(t, cells[0].CellID())

	cells, err = repo.TopCells(8, 1)
	require.NoError(t, err)
	assert.Len(t, cells, 1)

	_, err = repo.TopCells(5, 1)
	require.Error(t, err)
}

func TestResolverWithRepository(t *testing.T) {
	repo := setupTestDB(t)

	g := newMockGeocoder()
	g.results["Los Angeles"] = &GeocodingResult{Latitude: losAngeles.Point.Lat, Longitude: losAngeles.Point.Lng}

	first := NewResolver(g, &ResolverOptions{Store: repo})
	_, err := first.Resolve("Los Angeles")
	require.NoError(t, err)
	_, err = first.Resolve("Atlantis")
	require.NoError(t, err)

	// a later run reuses both outcomes
	second := NewResolver(g, &ResolverOptions{Store: repo})
	added, err := second.Seed(repo)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	got, err := second.Resolve("Los Angeles")
	require.NoError(t, err)
	assert.True(t, got.Resolved())

	got, err = second.Resolve("Atlantis")
	require.NoError(t, err)
	assert.False(t, got.Resolved())

	assert.Equal(t, 2, g.total())
}

func TestSeedExportImport(t *testing.T) {
	src := setupTestDB(t)
	require.NoError(t, src.Save("Los Angeles", losAngeles))
	require.NoError(t, src.Save("Atlantis", Outcome{Status: StatusUnresolved}))

	path := filepath.Join(t.TempDir(), "geocodes.json")

	exported, err := ExportJSON(src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	dst := setupTestDB(t)

	imported, err := ImportJSON(dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	want, err := src.LoadAll()
	require.NoError(t, err)

	got, err := dst.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportJSON_Invalid(t *testing.T) {
	repo := setupTestDB(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{"},
		{name: "resolved without point", content: `{"locations":[{"location":"x","resolved":true}]}`},
		{name: "out of range", content: `{"locations":[{"location":"x","resolved":true,"point":{"lat":91,"lng":0}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "seed.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := ImportJSON(repo, path)
			require.Error(t, err)
		})
	}

	total, _, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
