// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils"
)

// DefaultMapFile is the name of the map written by the nearest command.
const DefaultMapFile = "FilmMap.html"

// Marker is one ranked record as drawn on the map.
type Marker struct {
	Title      string  `json:"title"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
	Color      string  `json:"color"`
	Popup      string  `json:"popup"`
}

// MapData is what the map template receives.
type MapData struct {
	Title   string
	Year    string
	Ref     spatial.Point
	Markers []Marker
}

// Popup is the text shown when a marker is clicked.
func Popup(r ranking.RankedRecord) string {
	return "\"" + r.Title + "\"\nDistance from location: " + utils.FormatKm(r.DistanceKm)
}

// NewMapData builds the map of the records of year ranked around ref.
// Unresolved records are skipped.
func NewMapData(year string, ref spatial.Point, ranked []ranking.RankedRecord) MapData {
	markers := make([]Marker, 0, len(ranked))

	for _, r := range ranked {
		if r.Point == nil {
			continue
		}

		markers = append(markers, Marker{
			Title:      r.Title,
			Lat:        r.Point.Lat,
			Lng:        r.Point.Lng,
			DistanceKm: utils.RoundKm(r.DistanceKm),
			Color:      Classify(r.DistanceKm).Color(),
			Popup:      Popup(r),
		})
	}

	return MapData{
		Title:   fmt.Sprintf("Films of %s shot near %s", year, ref),
		Year:    year,
		Ref:     ref,
		Markers: markers,
	}
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.popup { white-space: pre-line; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var ref = [{{.Ref.Lat}}, {{.Ref.Lng}}];
var markers = {{.Markers}};

var map = L.map('map').setView(ref, 5);
var tiles = L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var films = L.layerGroup();
markers.forEach(function (m) {
  var popup = document.createElement('div');
  popup.className = 'popup';
  popup.textContent = m.popup;
  L.circleMarker([m.lat, m.lng], {
    radius: 10,
    color: 'grey',
    fillColor: m.color,
    fillOpacity: 0.6
  }).bindPopup(popup).addTo(films);
});
films.addTo(map);

var here = L.marker(ref, {title: 'Reference location'}).bindPopup('Reference location');
var reference = L.layerGroup([here]).addTo(map);

L.control.layers({'OpenStreetMap': tiles}, {'Films': films, 'Reference': reference}).addTo(map);
</script>
</body>
</html>
`))

// WriteHTMLMap renders a Leaflet map with one circle marker per record.
func WriteHTMLMap(w io.Writer, data MapData) error {
	if err := mapTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	return nil
}

// SaveHTMLMap writes the map to path.
func SaveHTMLMap(path string, data MapData) error {
	return saveWith(path, func(w io.Writer) error {
		return WriteHTMLMap(w, data)
	})
}

// saveWith creates path and fills it with write.
func saveWith(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
