// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Node2string appends the text content of n to sb, one space between text nodes.
func Node2string(n *html.Node, sb *strings.Builder) (err error) {
	if n.Type == html.TextNode {
		tmp := strings.Join(strings.Fields(n.Data), " ")

		// a REPLACEMENT CHARACTER (U+FFFD) means the payload was decoded
		// with the wrong charset somewhere upstream
		if idx := strings.IndexRune(tmp, utf8.RuneError); idx != -1 {
			return fmt.Errorf("charset missmatch found: `%s'", tmp)
		}

		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}
	} else {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			err = Node2string(child, sb)
			if err != nil {
				break
			}
		}
	}

	return err
}

// TextContent parses an HTML fragment and returns its text.
func TextContent(fragment string) (string, error) {
	n, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing HTML fragment: %w", err)
	}

	sb := strings.Builder{}
	if err := Node2string(n, &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// FirstHref returns the href of the first anchor in the fragment, if any.
func FirstHref(fragment string) string {
	n, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	return firstHref(n)
}

func firstHref(n *html.Node) string {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
		for _, attr := range n.Attr {
			if strings.EqualFold(attr.Key, "href") {
				return attr.Val
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if href := firstHref(child); href != "" {
			return href
		}
	}

	return ""
}
