// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the nearest filming locations query over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/filmloc/geocode"
	"github.com/jcodagnone/filmloc/pipeline"
	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/render"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils"
)

// DatasetOpener opens the raw dataset. It is only called when the pipeline
// has to extract the records again.
type DatasetOpener func() (io.ReadCloser, error)

// Server answers queries for a single year. Requests are serialized since
// the pipeline and its resolver are not safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	pipeline *pipeline.Pipeline
	year     string
	open     DatasetOpener
}

// NewServer creates a server answering queries about year.
func NewServer(p *pipeline.Pipeline, year string, open DatasetOpener) *Server {
	return &Server{
		pipeline: p,
		year:     year,
		open:     open,
	}
}

// Result is one ranked record in the API response.
type Result struct {
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Location   string  `json:"location"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
	Bucket     string  `json:"bucket"`
}

// NearestResponse is the body of GET /api/nearest.
type NearestResponse struct {
	Year      string        `json:"year"`
	Reference spatial.Point `json:"reference"`
	Results   []Result      `json:"results"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Year     string `json:"year"`
	Records  int    `json:"records"`
	Resolved int    `json:"resolved"`
	Queries  int    `json:"queries"`
	MemoHits int    `json:"memo_hits"`
	Memoized int    `json:"memoized"`
	Lookups  int    `json:"lookups"`
}

// Router registers the routes on a new gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/", s.mapView)
	r.GET("/map", s.mapView)
	r.GET("/api/nearest", s.nearest)
	r.GET("/api/stats", s.stats)

	return r
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving films of %s on http://%s", s.year, addr)

	return s.Router().Run(addr)
}

func (s *Server) nearest(ctx *gin.Context) {
	ref, ok := parseReference(ctx)
	if !ok {
		return
	}

	ranked, ok := s.query(ctx, ref)
	if !ok {
		return
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, Result{
			Title:      r.Title,
			Year:       r.Year,
			Location:   r.Location,
			Lat:        r.Point.Lat,
			Lng:        r.Point.Lng,
			DistanceKm: utils.RoundKm(r.DistanceKm),
			Bucket:     string(render.Classify(r.DistanceKm)),
		})
	}

	ctx.JSON(http.StatusOK, NearestResponse{Year: s.year, Reference: ref, Results: results})
}

func (s *Server) mapView(ctx *gin.Context) {
	ref, ok := parseReference(ctx)
	if !ok {
		return
	}

	ranked, ok := s.query(ctx, ref)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.WriteHTMLMap(&buf, render.NewMapData(s.year, ref, ranked)); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) stats(ctx *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatsResponse{
		Year:     s.pipeline.Year(),
		Records:  len(s.pipeline.Dataset()),
		Queries:  s.pipeline.Metrics.Queries,
		MemoHits: s.pipeline.Metrics.MemoHits,
		Memoized: s.pipeline.MemoSize(),
		Lookups:  s.pipeline.Metrics.Resolve.Lookups,
	}

	for _, r := range s.pipeline.Dataset() {
		if r.Resolved() {
			resp.Resolved++
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

// query runs the pipeline, writing the error response when it fails.
func (s *Server) query(ctx *gin.Context, ref spatial.Point) ([]ranking.RankedRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw io.Reader

	if s.pipeline.Year() != s.year {
		rc, err := s.open()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("opening dataset: %v", err)})

			return nil, false
		}
		defer rc.Close()

		raw = rc
	}

	ranked, err := s.pipeline.Run(raw, s.year, ref)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, geocode.ErrServiceUnavailable) {
			status = http.StatusServiceUnavailable
		}

		log.Printf("Query for %s failed: %v", ref, err)
		ctx.JSON(status, gin.H{"error": err.Error()})

		return nil, false
	}

	return ranked, true
}

// parseReference reads the lat and lon query parameters, writing a 400
// response when they are missing or invalid.
func parseReference(ctx *gin.Context) (spatial.Point, bool) {
	lat, errLat := strconv.ParseFloat(ctx.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(ctx.Query("lon"), 64)

	if errLat != nil || errLng != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})

		return spatial.Point{}, false
	}

	ref := spatial.Point{Lat: lat, Lng: lng}
	if err := ref.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return spatial.Point{}, false
	}

	return ref, true
}
