// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils reduces HTML error pages to readable text.
package htmlutils

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxSummary is the length of the text kept from an error page.
const maxSummary = 200

// NodeText appends the text below n to sb, one space between text nodes.
// Script and style contents are skipped.
func NodeText(n *html.Node, sb *strings.Builder) (err error) {
	switch {
	case n.Type == html.TextNode:
		tmp := strings.Join(strings.Fields(n.Data), " ")

		// a REPLACEMENT CHARACTER (U+FFFD) means the page was decoded
		// with the wrong charset
		if strings.ContainsRune(tmp, utf8.RuneError) {
			return fmt.Errorf("charset mismatch found: `%s'", tmp)
		}

		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}
	case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
		return nil
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if err = NodeText(child, sb); err != nil {
				break
			}
		}
	}

	return err
}

// Validates that the media type is HTML.
func hasHTMLContentType(media string) bool {
	const expectedMedia = "text/html"

	return strings.EqualFold(
		expectedMedia,
		media[0:min(len(media), len(expectedMedia))],
	)
}

// AsReader decodes body to UTF-8 using the charset of the media type.
func AsReader(body io.Reader, media string) (io.Reader, error) {
	if !hasHTMLContentType(media) {
		return nil, fmt.Errorf("media type is %s", media)
	}

	return charset.NewReader(body, media)
}

// AsNode parses an io.Reader as an HTML node.
func AsNode(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if nil != err {
		return nil, fmt.Errorf("parsing body as HTML: %w", err)
	}

	return n, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(tag, n.Data) {
		return n
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}

	return nil
}

// Summarize turns the body of an error response into a one line message:
// the title of an HTML page, or else its text. Other bodies are returned
// with their whitespace collapsed.
func Summarize(media string, body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")

	r, err := AsReader(bytes.NewReader(body), media)
	if err == nil {
		if n, err := AsNode(r); err == nil {
			target := findElement(n, "title")
			if target == nil {
				target = findElement(n, "body")
			}

			sb := strings.Builder{}
			if target != nil && NodeText(target, &sb) == nil && sb.Len() > 0 {
				text = sb.String()
			}
		}
	}

	if utf8.RuneCountInString(text) > maxSummary {
		text = string([]rune(text)[:maxSummary]) + "…"
	}

	return text
}
