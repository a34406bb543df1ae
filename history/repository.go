// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package history keeps a log of the places a user picked.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
	"github.com/jcodagnone/places/utils/textutils"
	"github.com/uber/h3-go/v4"
)

// H3 resolutions stored with every pick.
const (
	MinResolution = 5
	MaxResolution = 9
)

// ErrInvalidResolution is returned by Near for resolutions that aren't stored.
var ErrInvalidResolution = errors.New("history: invalid h3 resolution")

// Pick is a place selected by the user.
type Pick struct {
	ID               int64         `json:"id"`
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	Point            spatial.Point `json:"point"`
	Radius           float64       `json:"radius"`
	Query            string        `json:"query,omitempty"`
	PickedAt         time.Time     `json:"picked_at"`

	// H3Cells holds the cells at MinResolution..MaxResolution
	H3Cells [MaxResolution - MinResolution + 1]int64 `json:"-"`
}

// NewPick builds a Pick out of the details of a place and the query that found it.
func NewPick(details *places.PlaceDetails, query string) *Pick {
	return &Pick{
		PlaceID:          details.PlaceID,
		Name:             details.Name,
		FormattedAddress: details.FormattedAddress,
		Point:            details.Location,
		Radius:           details.Radius,
		Query:            query,
	}
}

func (p *Pick) computeH3() error {
	latLng := h3.NewLatLng(p.Point.Lat, p.Point.Lng)

	for res := MinResolution; res <= MaxResolution; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		p.H3Cells[res-MinResolution] = int64(cell)
	}

	return nil
}

// Repository handles persistence of picks.
type Repository interface {
	// CreateSchema creates the picks table
	CreateSchema() error

	// Record stores a new pick, filling ID and PickedAt
	Record(ctx context.Context, pick *Pick) error

	// List returns the most recent picks whose name or address contains filter
	List(ctx context.Context, filter string, limit int) ([]*Pick, error)

	// Near returns picks in the same H3 cell as point at the given resolution
	Near(ctx context.Context, point spatial.Point, resolution int) ([]*Pick, error)

	// Count returns the total number of picks
	Count(ctx context.Context) (int64, error)
}

type sqlRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new pick repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db, now: time.Now}
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS picks_seq START 1;

		CREATE TABLE IF NOT EXISTS picks (
			id BIGINT PRIMARY KEY DEFAULT nextval('picks_seq'),
			place_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			formatted_address VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			radius DOUBLE NOT NULL,
			query VARCHAR NOT NULL,
			picked_at TIMESTAMP NOT NULL,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			h3_res9 UBIGINT
		);
	`)

	return err
}

func (r *sqlRepository) Record(ctx context.Context, pick *Pick) error {
	if pick.PlaceID == "" {
		return errors.New("place id can't be empty")
	}

	if err := pick.computeH3(); err != nil {
		return err
	}

	pick.PickedAt = r.now().UTC()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO picks(
			place_id,
			name,
			formatted_address,
			lat,
			lng,
			radius,
			query,
			picked_at,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8,
			h3_res9
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		pick.PlaceID,
		pick.Name,
		pick.FormattedAddress,
		pick.Point.Lat,
		pick.Point.Lng,
		pick.Radius,
		pick.Query,
		pick.PickedAt,
		pick.H3Cells[0],
		pick.H3Cells[1],
		pick.H3Cells[2],
		pick.H3Cells[3],
		pick.H3Cells[4],
	).Scan(&pick.ID)
	if err != nil {
		return fmt.Errorf("inserting pick %s: %w", pick.PlaceID, err)
	}

	return nil
}

const selectPicks = `
	SELECT id, place_id, name, formatted_address, lat, lng, radius, query, picked_at
	FROM picks
`

func scanPicks(rows *sql.Rows) ([]*Pick, error) {
	defer rows.Close()

	var picks []*Pick

	for rows.Next() {
		p := &Pick{}
		if err := rows.Scan(
			&p.ID,
			&p.PlaceID,
			&p.Name,
			&p.FormattedAddress,
			&p.Point.Lat,
			&p.Point.Lng,
			&p.Radius,
			&p.Query,
			&p.PickedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning pick: %w", err)
		}

		if err := p.computeH3(); err != nil {
			return nil, err
		}

		picks = append(picks, p)
	}

	return picks, rows.Err()
}

// List matches filter in Go, ignoring case and accents.
func (r *sqlRepository) List(ctx context.Context, filter string, limit int) ([]*Pick, error) {
	rows, err := r.db.QueryContext(ctx, selectPicks+` ORDER BY picked_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing picks: %w", err)
	}

	picks, err := scanPicks(rows)
	if err != nil {
		return nil, err
	}

	result := make([]*Pick, 0, len(picks))

	for _, p := range picks {
		if limit > 0 && len(result) == limit {
			break
		}

		if filter == "" ||
			textutils.ContainsFolded(p.Name, filter) ||
			textutils.ContainsFolded(p.FormattedAddress, filter) {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r *sqlRepository) Near(ctx context.Context, point spatial.Point, resolution int) ([]*Pick, error) {
	if resolution < MinResolution || resolution > MaxResolution {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidResolution, resolution, MinResolution, MaxResolution)
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(point.Lat, point.Lng), resolution)
	if err != nil {
		return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", resolution, err)
	}

	// resolution is validated above, the column name is safe to format
	query := fmt.Sprintf(`%s WHERE h3_res%d = ? ORDER BY picked_at DESC, id DESC`, selectPicks, resolution)

	rows, err := r.db.QueryContext(ctx, query, int64(cell))
	if err != nil {
		return nil, fmt.Errorf("listing picks near %s: %w", point.Param(), err)
	}

	return scanPicks(rows)
}

func (r *sqlRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM picks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting picks: %w", err)
	}

	return n, nil
}
