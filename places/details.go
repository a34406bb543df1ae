// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"log"
	"strings"

	"github.com/jcodagnone/places/spatial"
	"github.com/jcodagnone/places/utils/htmlutils"
)

// DefaultDetailsFields are the fields requested when DetailsRequest.Fields is empty.
var DefaultDetailsFields = []string{
	"formatted_address",
	"geometry",
	"name",
	"place_id",
	"types",
}

// DetailsRequest asks for the attributes of one place.
type DetailsRequest struct {
	// PlaceID as returned by Autocomplete. Required.
	PlaceID string

	// Fields to return, DefaultDetailsFields when empty.
	Fields []string

	Language     string
	Region       string
	SessionToken string
}

// Attribution is a credit that must be displayed with the place.
type Attribution struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// PlaceDetails are the full attributes of a place.
type PlaceDetails struct {
	PlaceID          string            `json:"place_id"`
	Name             string            `json:"name"`
	FormattedAddress string            `json:"formatted_address,omitempty"`
	Location         spatial.Point     `json:"location"`
	Viewport         *spatial.Viewport `json:"viewport,omitempty"`
	Radius           float64           `json:"radius"`
	Types            []string          `json:"types,omitempty"`
	Attributions     []Attribution     `json:"attributions,omitempty"`
}

type detailsResponse struct {
	HTMLAttributions []string `json:"html_attributions"`
	Result           struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location spatial.Point     `json:"location"`
			Viewport *spatial.Viewport `json:"viewport"`
		} `json:"geometry"`
	} `json:"result"`
}

// Query returns the query string parameters of the request, without key.
func (r *DetailsRequest) Query() (*Query, error) {
	placeID := strings.TrimSpace(r.PlaceID)
	if placeID == "" {
		return nil, ErrEmptyPlaceID
	}

	fields := r.Fields
	if len(fields) == 0 {
		fields = DefaultDetailsFields
	}

	return NewQuery().
		Set("place_id", placeID).
		Set("fields", strings.Join(fields, ",")).
		Set("language", r.Language).
		Set("region", r.Region).
		Set("sessiontoken", r.SessionToken), nil
}

// Details fetches the attributes of r.PlaceID.
func (c *Client) Details(ctx context.Context, r *DetailsRequest) (*PlaceDetails, error) {
	q, err := r.Query()
	if err != nil {
		return nil, err
	}

	var resp detailsResponse

	status, err := c.get(ctx, "details", q, &resp)
	if err != nil {
		return nil, err
	}

	if status == StatusZeroResults {
		return nil, &Error{Type: ErrorTypeNotFound, Status: status, Message: "place not found: " + r.PlaceID}
	}

	result := resp.Result
	details := &PlaceDetails{
		PlaceID:          result.PlaceID,
		Name:             result.Name,
		FormattedAddress: result.FormattedAddress,
		Location:         result.Geometry.Location,
		Viewport:         result.Geometry.Viewport,
		Types:            result.Types,
	}

	if details.PlaceID == "" {
		details.PlaceID = q.Get("place_id")
	}

	if details.Viewport != nil {
		details.Radius = details.Viewport.Radius()
	}

	for _, a := range resp.HTMLAttributions {
		text, err := htmlutils.TextContent(a)
		if err != nil {
			log.Printf("Skipping attribution %q: %s", a, err)

			continue
		}

		details.Attributions = append(details.Attributions, Attribution{
			Text: text,
			URL:  htmlutils.FirstHref(a),
		})
	}

	return details, nil
}
