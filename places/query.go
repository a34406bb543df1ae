// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query builds the query string of a places API request. Keys are encoded
// in ascending order and parameters with empty values are left out.
type Query struct {
	params map[string]string
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{params: make(map[string]string)}
}

// Set sets key to value. An empty value removes the key.
func (q *Query) Set(key, value string) *Query {
	if value == "" {
		delete(q.params, key)
	} else {
		q.params[key] = value
	}

	return q
}

// SetInt sets key when n is positive.
func (q *Query) SetInt(key string, n int) *Query {
	if n <= 0 {
		return q.Set(key, "")
	}

	return q.Set(key, strconv.Itoa(n))
}

// SetFloat sets key when f is positive.
func (q *Query) SetFloat(key string, f float64) *Query {
	if f <= 0 {
		return q.Set(key, "")
	}

	return q.Set(key, strconv.FormatFloat(f, 'f', -1, 64))
}

// SetBool sets key to "true" when b holds.
func (q *Query) SetBool(key string, b bool) *Query {
	if !b {
		return q.Set(key, "")
	}

	return q.Set(key, "true")
}

// SetList joins the non empty values with "|".
func (q *Query) SetList(key string, values []string) *Query {
	parts := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}

	return q.Set(key, strings.Join(parts, "|"))
}

// Get returns the value associated with key.
func (q *Query) Get(key string) string {
	return q.params[key]
}

// Len returns the number of parameters.
func (q *Query) Len() int {
	return len(q.params)
}

// Encode returns the URL encoded form ("a=1&b=2") sorted by key.
func (q *Query) Encode() string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder

	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(Escape(k))
		sb.WriteByte('=')
		sb.WriteString(Escape(q.params[k]))
	}

	return sb.String()
}

// Escape percent-escapes s for use in a query string. Spaces become %20.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
