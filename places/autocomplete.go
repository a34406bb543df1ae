// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jcodagnone/places/spatial"
	"github.com/jcodagnone/places/utils/textutils"
	"golang.org/x/text/unicode/norm"
)

// AutocompleteRequest is a free text query plus optional bias parameters.
type AutocompleteRequest struct {
	// Input is the text typed so far. Required.
	Input string

	// Location and Radius (meters) bias results towards a circle.
	Location *spatial.Point
	Radius   float64

	// StrictBounds only returns places within Location/Radius.
	StrictBounds bool

	// Origin is used to compute DistanceMeters.
	Origin *spatial.Point

	// Language of the results, e.g. "es".
	Language string

	// Region is a ccTLD used as a bias, e.g. "uy".
	Region string

	// Types restricts results, e.g. "geocode", "establishment".
	Types []string

	// Countries restricts results to ISO 3166-1 alpha-2 codes.
	Countries []string

	// Offset is the position of the cursor within Input, in characters. It
	// is shifted to match the normalized input that is sent.
	Offset int

	// SessionToken groups the request with a terminating details call.
	SessionToken string
}

// Substring is a portion of a prediction that matched the input.
type Substring struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Term is one element of a prediction description.
type Term struct {
	Offset int    `json:"offset"`
	Value  string `json:"value"`
}

// Prediction is a place stub returned by autocomplete.
type Prediction struct {
	PlaceID           string      `json:"place_id"`
	Description       string      `json:"description"`
	MainText          string      `json:"main_text,omitempty"`
	SecondaryText     string      `json:"secondary_text,omitempty"`
	Types             []string    `json:"types,omitempty"`
	MatchedSubstrings []Substring `json:"matched_substrings,omitempty"`
	Terms             []Term      `json:"terms,omitempty"`
	DistanceMeters    *int        `json:"distance_meters,omitempty"`
}

// Title returns the main text, falling back to the description.
func (p Prediction) Title() string {
	if p.MainText != "" {
		return p.MainText
	}

	return p.Description
}

type autocompleteResponse struct {
	Predictions []struct {
		PlaceID              string      `json:"place_id"`
		Description          string      `json:"description"`
		Types                []string    `json:"types"`
		MatchedSubstrings    []Substring `json:"matched_substrings"`
		Terms                []Term      `json:"terms"`
		DistanceMeters       *int        `json:"distance_meters"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

// Query returns the query string parameters of the request, without key.
func (r *AutocompleteRequest) Query() (*Query, error) {
	input := textutils.NormalizeInput(r.Input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	q := NewQuery().
		Set("input", input).
		Set("language", r.Language).
		Set("region", r.Region).
		Set("sessiontoken", r.SessionToken).
		SetList("types", r.Types).
		SetInt("offset", r.cursor(input))

	if r.Location != nil {
		q.Set("location", r.Location.Param())
		q.SetFloat("radius", r.Radius)
		q.SetBool("strictbounds", r.StrictBounds)
	}

	if r.Origin != nil {
		q.Set("origin", r.Origin.Param())
	}

	countries := make([]string, 0, len(r.Countries))
	for _, c := range r.Countries {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			countries = append(countries, "country:"+c)
		}
	}

	q.SetList("components", countries)

	return q, nil
}

// cursor maps Offset from Input onto the normalized input.
func (r *AutocompleteRequest) cursor(input string) int {
	if r.Offset <= 0 {
		return 0
	}

	runes := []rune(r.Input)
	prefix := norm.NFC.String(strings.TrimLeftFunc(string(runes[:min(r.Offset, len(runes))]), unicode.IsSpace))

	return min(utf8.RuneCountInString(prefix), utf8.RuneCountInString(input))
}

// Autocomplete returns the predictions for r.Input. ZERO_RESULTS yields an
// empty slice and no error.
func (c *Client) Autocomplete(ctx context.Context, r *AutocompleteRequest) ([]Prediction, error) {
	q, err := r.Query()
	if err != nil {
		return nil, err
	}

	var resp autocompleteResponse
	if _, err := c.get(ctx, "autocomplete", q, &resp); err != nil {
		return nil, err
	}

	predictions := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, Prediction{
			PlaceID:           p.PlaceID,
			Description:       p.Description,
			MainText:          p.StructuredFormatting.MainText,
			SecondaryText:     p.StructuredFormatting.SecondaryText,
			Types:             p.Types,
			MatchedSubstrings: p.MatchedSubstrings,
			Terms:             p.Terms,
			DistanceMeters:    p.DistanceMeters,
		})
	}

	return predictions, nil
}
