// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package htmlutils

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestNode2string(t *testing.T) {
	tests := []struct {
		fail     bool
		expected string
		input    string
	}{
		{false, "foo bar", "<div><pre>foo</pre><span>bar</span>"},
		{false, "foo bar", "<div>  foo\n\t bar </div>"},
		{true, "", "<span>a\uFFFDo</span>"},
	}

	for _, test := range tests {
		n, err := html.Parse(strings.NewReader(test.input))
		if err != nil {
			t.Fatalf("parsing HTML `%s': %s", test.input, err)
		}

		sb := strings.Builder{}

		err = Node2string(n, &sb)
		if !test.fail && err != nil {
			t.Errorf("unexpected error: %s", err)
		} else if test.fail && err == nil {
			t.Errorf("didn't fail: %s", test.input)
		}

		if got := sb.String(); got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}

func TestTextContent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`<a href="https://maps.google.com/maps/contrib/101">Juan Pérez</a>`, "Juan Pérez"},
		{`Listings by <a href="http://www.example.com/">Example &amp; Co</a>`, "Listings by Example & Co"},
		{`plain text`, "plain text"},
		{``, ""},
	}

	for _, test := range tests {
		got, err := TextContent(test.input)
		if err != nil {
			t.Errorf("`%s': unexpected error: %s", test.input, err)

			continue
		}

		if got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}

func TestFirstHref(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`<a href="https://maps.google.com/maps/contrib/101">Juan</a>`, "https://maps.google.com/maps/contrib/101"},
		{`by <b>x</b> <A HREF="/one">1</A><a href="/two">2</a>`, "/one"},
		{`no links here`, ""},
	}

	for _, test := range tests {
		if got := FirstHref(test.input); got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}
