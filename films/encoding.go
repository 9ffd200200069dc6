// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package films

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// NewDecodingReader wraps r so it yields UTF-8 text. The IMDb lists are
// distributed as ISO-8859-1, so "latin1" is the usual value; an empty
// charset or "utf-8" returns r unchanged.
func NewDecodingReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", charset, err)
	}

	return enc.NewDecoder().Reader(r), nil
}
