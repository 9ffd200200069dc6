// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package films

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		year   string
		want   Record
		wantOk bool
	}{
		{
			name:   "annotation block and studio note",
			line:   `"Inception" (2010) {Los Angeles} Some Street, Los Angeles (Studio X)`,
			year:   "2010",
			want:   Record{Title: "Inception", Year: "2010", Location: "Some Street, Los Angeles"},
			wantOk: true,
		},
		{
			name:   "tab separated without notes",
			line:   "\"#1 Single\" (2006)\t\t\t\t\tLos Angeles, California, USA",
			year:   "2006",
			want:   Record{Title: "#1 Single", Year: "2006", Location: "Los Angeles, California, USA"},
			wantOk: true,
		},
		{
			name:   "episode annotation with nested parenthesis",
			line:   "\"#Elmira\" (2014) {(#1.1)}\t\t\tElmira, New York, USA (on location)",
			year:   "2014",
			want:   Record{Title: "#Elmira", Year: "2014", Location: "Elmira, New York, USA"},
			wantOk: true,
		},
		{
			name:   "annotation with commas",
			line:   "\"Show\" (2012) {Pilot, Part 1 (#1.1)}\tToronto, Ontario, Canada",
			year:   "2012",
			want:   Record{Title: "Show", Year: "2012", Location: "Toronto, Ontario, Canada"},
			wantOk: true,
		},
		{
			name:   "title disambiguator",
			line:   "\"Home\" (2009/I)\t\tParis, France (studio)",
			year:   "2009",
			want:   Record{Title: "Home", Year: "2009", Location: "Paris, France"},
			wantOk: true,
		},
		{
			name:   "unterminated annotation",
			line:   "\"Broken\" (2010)\tRome, Italy {never closed",
			year:   "2010",
			want:   Record{Title: "Broken", Year: "2010", Location: "Rome, Italy"},
			wantOk: true,
		},
		{
			name:   "no location",
			line:   `"Bare" (2010)`,
			year:   "2010",
			want:   Record{Title: "Bare", Year: "2010", Location: ""},
			wantOk: true,
		},
		{
			name: "not quoted",
			line: "Inception (2010)\tLos Angeles",
			year: "2010",
		},
		{
			name: "year in the title only",
			line: "\"Class of 2010\" (2011)\tBoston, USA",
			year: "2010",
		},
		{
			name: "year in the location only",
			line: "\"Expo\" (2008)\tShanghai Expo 2010 Park, China",
			year: "2010",
		},
		{
			name: "unknown year",
			line: "\"Lost\" (????)\tNowhere",
			year: "2010",
		},
		{
			name: "too short for the year column",
			line: `"2010" (`,
			year: "2010",
		},
		{
			name: "single quote",
			line: "\"2010",
			year: "2010",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line, tt.year)
			require.Equal(t, tt.wantOk, ok)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLine() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const sampleList = `CRC: 0x9B0E1E3C  File: locations.list  Date: Fri Dec 16 00:00:00 2016

LOCATIONS LIST
==============

"Inception" (2010) {Los Angeles} Some Street, Los Angeles (Studio X)
"Expo" (2008)	Shanghai Expo 2010 Park, China
"Class of 2010" (2011)	Boston, USA
"The Social Network" (2010)	Cambridge, Massachusetts, USA
2010 not a record
"Black Swan" (2010)	New York City, New York, USA (studio)
"Old" (1999)	Madrid, Spain
"Garbled" (20
`

func TestListExtractor_Extract(t *testing.T) {
	records, metrics, err := NewListExtractor().Extract(strings.NewReader(sampleList), "2010")
	require.NoError(t, err)

	want := []Record{
		{Title: "Inception", Year: "2010", Location: "Some Street, Los Angeles"},
		{Title: "The Social Network", Year: "2010", Location: "Cambridge, Massachusetts, USA"},
		{Title: "Black Swan", Year: "2010", Location: "New York City, New York, USA"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 13, metrics.Lines)
	assert.Equal(t, 5, metrics.Candidates)
	assert.Equal(t, 3, metrics.Extracted)
	assert.Equal(t, 2, metrics.FalsePositives)
	assert.Equal(t, 0, metrics.Malformed)
}

func TestListExtractor_Properties(t *testing.T) {
	records, _, err := NewListExtractor().Extract(strings.NewReader(sampleList), "2010")
	require.NoError(t, err)

	for _, r := range records {
		assert.Len(t, r.Year, 4)
		assert.True(t, isYear(r.Year))
		assert.Equal(t, "2010", r.Year)
	}

	// every record comes from a quoted line
	unquoted := "Inception (2010)\tLos Angeles\n 2010\n'Quoted' (2010)\tRome\n"
	records, _, err = NewListExtractor().Extract(strings.NewReader(unquoted), "2010")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListExtractor_Empty(t *testing.T) {
	records, metrics, err := NewListExtractor().Extract(strings.NewReader(""), "2010")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, 0, metrics.Lines)
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestListExtractor_ReadError(t *testing.T) {
	_, _, err := NewListExtractor().Extract(failingReader{}, "2010")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestExtractMetricsMerge(t *testing.T) {
	m := &ExtractMetrics{Lines: 1, Candidates: 1, Extracted: 1}
	m.Merge(&ExtractMetrics{Lines: 2, Candidates: 2, Extracted: 1, FalsePositives: 1, Malformed: 3}).Merge(nil)

	assert.Equal(t, ExtractMetrics{Lines: 3, Candidates: 3, Extracted: 2, FalsePositives: 1, Malformed: 3}, *m)
}
