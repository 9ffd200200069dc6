// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline composes extraction, coordinate resolution and ranking
// into the nearest filming locations query.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jcodagnone/filmloc/films"
	"github.com/jcodagnone/filmloc/geocode"
	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progress is logged every logEvery records when there is no terminal.
const logEvery = 100

// DefaultMemoLimit is the number of reference points whose results are kept.
const DefaultMemoLimit = 1024

// Options configures a Pipeline.
type Options struct {
	// Limit is the number of records returned; <= 0 means ranking.DefaultLimit.
	Limit int
	// CSVPath, when set, receives the extracted records; the records
	// resolved are the ones read back from it.
	CSVPath string
	// Progress reports resolution progress on stderr.
	Progress bool
	// Extractor defaults to films.NewListExtractor.
	Extractor films.Extractor
	// MemoLimit caps the memoized reference points, the oldest is evicted
	// first; <= 0 means DefaultMemoLimit.
	MemoLimit int
}

// Metrics tracks what the pipeline did.
type Metrics struct {
	Extract  films.ExtractMetrics
	Resolve  geocode.ResolverMetrics
	Queries  int
	MemoHits int
}

// Merge adds the values of another metrics object to this one.
func (m *Metrics) Merge(o *Metrics) *Metrics {
	if o == nil {
		return m
	}

	m.Extract.Merge(&o.Extract)
	m.Resolve.Merge(&o.Resolve)
	m.Queries += o.Queries
	m.MemoHits += o.MemoHits

	return m
}

// Pipeline answers nearest location queries. The resolved dataset of the
// last year and the results per reference point are kept for the lifetime
// of the value. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	resolver  *geocode.Resolver
	extractor films.Extractor
	options   Options

	loaded  bool
	year    string
	dataset []films.ResolvedRecord
	memo    map[spatial.Point][]ranking.RankedRecord
	order   []spatial.Point

	Metrics Metrics
}

// New creates a pipeline resolving through resolver.
func New(resolver *geocode.Resolver, options *Options) *Pipeline {
	if options == nil {
		options = &Options{}
	}

	extractor := options.Extractor
	if extractor == nil {
		extractor = films.NewListExtractor()
	}

	p := &Pipeline{
		resolver:  resolver,
		extractor: extractor,
		options:   *options,
		memo:      make(map[spatial.Point][]ranking.RankedRecord),
	}

	if p.options.MemoLimit <= 0 {
		p.options.MemoLimit = DefaultMemoLimit
	}

	return p
}

// Run returns the records of year closest to ref, nearest first.
//
// raw is only read when year differs from the year of the dataset already
// loaded; a memoized ref returns the stored result. At most MemoLimit
// results are memoized. Unresolved records are
// left out. The only error coming from resolution wraps
// geocode.ErrServiceUnavailable.
func (p *Pipeline) Run(raw io.Reader, year string, ref spatial.Point) ([]ranking.RankedRecord, error) {
	p.Metrics.Queries++

	if p.loaded && p.year == year {
		if ranked, ok := p.memo[ref]; ok {
			p.Metrics.MemoHits++

			return ranked, nil
		}
	} else {
		p.reset()

		dataset, err := p.load(raw, year)
		if err != nil {
			return nil, err
		}

		p.loaded, p.year, p.dataset = true, year, dataset
	}

	ranked := ranking.Rank(ref, p.dataset, p.options.Limit)
	p.remember(ref, ranked)

	return ranked, nil
}

// MemoSize returns the number of reference points with a memoized result.
func (p *Pipeline) MemoSize() int {
	return len(p.memo)
}

func (p *Pipeline) remember(ref spatial.Point, ranked []ranking.RankedRecord) {
	if len(p.order) >= p.options.MemoLimit {
		delete(p.memo, p.order[0])
		p.order = p.order[1:]
	}

	p.memo[ref] = ranked
	p.order = append(p.order, ref)
}

// Dataset returns the resolved records of the loaded year, in extraction order.
func (p *Pipeline) Dataset() []films.ResolvedRecord {
	return p.dataset
}

// Year returns the year of the loaded dataset, empty when none is loaded.
func (p *Pipeline) Year() string {
	return p.year
}

func (p *Pipeline) reset() {
	p.loaded = false
	p.year = ""
	p.dataset = nil
	p.memo = make(map[spatial.Point][]ranking.RankedRecord)
	p.order = nil
}

func (p *Pipeline) load(raw io.Reader, year string) ([]films.ResolvedRecord, error) {
	if raw == nil {
		return nil, fmt.Errorf("no dataset to extract year %s from", year)
	}

	records, metrics, err := p.extractor.Extract(raw, year)
	if err != nil {
		return nil, fmt.Errorf("extracting records: %w", err)
	}

	p.Metrics.Extract.Merge(metrics)

	log.Printf("Extracted %s records for %s", utils.FormatInt(int64(len(records))), year)

	if p.options.CSVPath != "" {
		if err := films.SaveCSV(p.options.CSVPath, records); err != nil {
			return nil, fmt.Errorf("writing intermediate records: %w", err)
		}

		if records, err = films.LoadCSV(p.options.CSVPath); err != nil {
			return nil, fmt.Errorf("reading intermediate records: %w", err)
		}
	}

	return p.resolve(records)
}

// resolve looks up every record in extraction order. Lookups are sequential
// since the resolver throttles provider calls.
func (p *Pipeline) resolve(records []films.Record) ([]films.ResolvedRecord, error) {
	before := p.resolver.Metrics()
	n := len(records)

	var bar *progressbar.ProgressBar
	if p.options.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving locations"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	resolved := make([]films.ResolvedRecord, 0, n)

	for i, r := range records {
		outcome, err := p.resolver.Resolve(r.Location)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", r.Location, err)
		}

		rr := films.ResolvedRecord{Record: r}
		if outcome.Resolved() {
			point := outcome.Point
			rr.Point = &point
		}

		resolved = append(resolved, rr)

		switch {
		case bar != nil:
			if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar: %v", err)
			}
		case p.options.Progress && (i+1)%logEvery == 0:
			log.Printf("Resolved %s of %s locations", utils.FormatInt(int64(i+1)), utils.FormatInt(int64(n)))
		}
	}

	after := p.resolver.Metrics()
	p.Metrics.Resolve.Merge(&geocode.ResolverMetrics{
		Lookups:    after.Lookups - before.Lookups,
		CacheHits:  after.CacheHits - before.CacheHits,
		Resolved:   after.Resolved - before.Resolved,
		Unresolved: after.Unresolved - before.Unresolved,
	})

	log.Printf(
		"Resolution complete - %s resolved, %s unresolved, %s provider calls, %s cache hits.",
		utils.FormatInt(int64(after.Resolved-before.Resolved)),
		utils.FormatInt(int64(after.Unresolved-before.Unresolved)),
		utils.FormatInt(int64(after.Lookups-before.Lookups)),
		utils.FormatInt(int64(after.CacheHits-before.CacheHits)),
	)

	return resolved, nil
}
