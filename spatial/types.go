// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the small amount of geometry the places client needs.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadius = 6371e3 // meters

// ErrInvalidPoint is returned when a "lat,lng" pair can't be parsed.
var ErrInvalidPoint = errors.New("invalid point")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Param formats the point the way the places API expects it: "lat,lng".
func (p Point) Param() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Valid reports whether the coordinates are within range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ParsePoint parses a "lat,lng" string.
func ParsePoint(s string) (Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q: expected lat,lng", ErrInvalidPoint, s)
	}

	var p Point

	var err error

	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("%w: %q: latitude: %w", ErrInvalidPoint, s, err)
	}

	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Point{}, fmt.Errorf("%w: %q: longitude: %w", ErrInvalidPoint, s, err)
	}

	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %q: out of range", ErrInvalidPoint, s)
	}

	return p, nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Viewport is the recommended display box of a place.
type Viewport struct {
	Northeast Point `json:"northeast"`
	Southwest Point `json:"southwest"`
}

// Center returns the midpoint of the viewport. Viewports crossing the
// antimeridian have Southwest.Lng > Northeast.Lng.
func (v Viewport) Center() Point {
	lng := (v.Northeast.Lng + v.Southwest.Lng) / 2
	if v.Southwest.Lng > v.Northeast.Lng {
		lng += 180
		if lng > 180 {
			lng -= 360
		}
	}

	return Point{
		Lat: (v.Northeast.Lat + v.Southwest.Lat) / 2,
		Lng: lng,
	}
}

// Radius returns the bounding radius in meters: half the diagonal.
func (v Viewport) Radius() float64 {
	return v.Southwest.HaversineDistance(&v.Northeast) / 2
}
