// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	lastAutocomplete *places.AutocompleteRequest
	lastDetails      *places.DetailsRequest
	err              error
}

func (m *mockSearcher) Autocomplete(_ context.Context, r *places.AutocompleteRequest) ([]places.Prediction, error) {
	m.lastAutocomplete = r
	if m.err != nil {
		return nil, m.err
	}

	if r.Input == "nada" {
		return []places.Prediction{}, nil
	}

	return []places.Prediction{
		{PlaceID: "ChIJ-plaza", Description: "Plaza Independencia, Montevideo, Uruguay", MainText: "Plaza Independencia"},
	}, nil
}

func (m *mockSearcher) Details(_ context.Context, r *places.DetailsRequest) (*places.PlaceDetails, error) {
	m.lastDetails = r
	if m.err != nil {
		return nil, m.err
	}

	return &places.PlaceDetails{
		PlaceID:          r.PlaceID,
		Name:             "Plaza Independencia",
		FormattedAddress: "11000 Montevideo, Uruguay",
		Location:         spatial.Point{Lat: -34.906559, Lng: -56.199483},
		Radius:           207,
	}, nil
}

func setupHistory(t *testing.T) history.Repository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := history.NewRepository(db)
	require.NoError(t, repo.CreateSchema())

	return repo
}

func setupServerTest(t *testing.T, repo history.Repository) (*gin.Engine, *mockSearcher) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	searcher := &mockSearcher{}
	server := NewServer(searcher, &Options{
		History:      repo,
		Autocomplete: places.AutocompleteRequest{Language: "es", Countries: []string{"uy"}},
		Details:      places.DetailsRequest{Language: "es"},
	})

	return server.Router(), searcher
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)

	return w
}

func TestHealthz(t *testing.T) {
	router, _ := setupServerTest(t, nil)

	w := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAutocompleteAPI(t *testing.T) {
	router, searcher := setupServerTest(t, nil)

	w := get(router, "/api/autocomplete?input=plaza%20indep&location=-34.9,-56.16&radius=5000&strictbounds=true&types=geocode,establishment&sessiontoken=tok")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var predictions []places.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &predictions))
	require.Len(t, predictions, 1)
	assert.Equal(t, "ChIJ-plaza", predictions[0].PlaceID)

	r := searcher.lastAutocomplete
	require.NotNil(t, r)
	assert.Equal(t, "plaza indep", r.Input)
	assert.Equal(t, &spatial.Point{Lat: -34.9, Lng: -56.16}, r.Location)
	assert.InDelta(t, 5000, r.Radius, 0)
	assert.True(t, r.StrictBounds)
	assert.Equal(t, []string{"geocode", "establishment"}, r.Types)
	assert.Equal(t, []string{"uy"}, r.Countries, "server default")
	assert.Equal(t, "es", r.Language, "server default")
	assert.Equal(t, "tok", r.SessionToken)

	w = get(router, "/api/autocomplete?input=x&language=pt&countries=ar%7Cbr")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pt", searcher.lastAutocomplete.Language)
	assert.Equal(t, []string{"ar", "br"}, searcher.lastAutocomplete.Countries)
	assert.Nil(t, searcher.lastAutocomplete.Location)
}

func TestAutocompleteZeroResults(t *testing.T) {
	router, _ := setupServerTest(t, nil)

	w := get(router, "/api/autocomplete?input=nada")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAutocompleteBadRequest(t *testing.T) {
	router, searcher := setupServerTest(t, nil)

	for _, target := range []string{
		"/api/autocomplete",
		"/api/autocomplete?input=%20%20",
		"/api/autocomplete?input=a&location=somewhere",
		"/api/autocomplete?input=a&radius=far",
		"/api/autocomplete?input=a&radius=-1",
		"/api/autocomplete?input=a&strictbounds=maybe",
	} {
		t.Run(target, func(t *testing.T) {
			w := get(router, target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	assert.Nil(t, searcher.lastAutocomplete, "nothing reaches the API")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &places.Error{Type: places.ErrorTypeNotFound, Message: "place not found"}, http.StatusNotFound},
		{"rate limit", &places.Error{Type: places.ErrorTypeRateLimit, Message: "rate limit reached"}, http.StatusTooManyRequests},
		{"quota", places.ClassifyStatus(places.StatusOverQueryLimit, ""), http.StatusTooManyRequests},
		{"denied", places.ClassifyStatus(places.StatusRequestDenied, "bad key"), http.StatusBadGateway},
		{"invalid", places.ClassifyStatus(places.StatusInvalidRequest, ""), http.StatusBadRequest},
		{"timeout", &places.Error{Type: places.ErrorTypeTimeout, Message: "timeout", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"network", &places.Error{Type: places.ErrorTypeNetwork, Message: "request failed"}, http.StatusBadGateway},
		{"empty place id", places.ErrEmptyPlaceID, http.StatusBadRequest},
		{"missing key", places.ErrMissingAPIKey, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, searcher := setupServerTest(t, nil)
			searcher.err = tt.err

			w := get(router, "/api/places/ChIJ-plaza")
			assert.Equal(t, tt.want, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
			assert.Equal(t, places.ErrorTypeOf(tt.err).String(), body["type"])
		})
	}
}

func TestUpstreamTimeoutKeepsKeyPrivate(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()

	gin.SetMode(gin.TestMode)

	client := places.NewClient("SECRET-KEY-123", &places.ClientOptions{BaseURL: upstream.URL, Timeout: 50 * time.Millisecond})
	router := NewServer(client, &Options{}).Router()

	w := get(router, "/api/autocomplete?input=plaza")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.NotContains(t, w.Body.String(), "SECRET-KEY-123")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "timeout", body["type"])
}

func TestDetailsAPIRecordsPick(t *testing.T) {
	repo := setupHistory(t)
	router, searcher := setupServerTest(t, repo)

	w := get(router, "/api/places/ChIJ-plaza?sessiontoken=tok&q=plaza")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var details places.PlaceDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, "Plaza Independencia", details.Name)
	assert.InDelta(t, 207, details.Radius, 0)

	assert.Equal(t, "ChIJ-plaza", searcher.lastDetails.PlaceID)
	assert.Equal(t, "tok", searcher.lastDetails.SessionToken)
	assert.Equal(t, "es", searcher.lastDetails.Language)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w = get(router, "/api/history?q=independencia")
	require.Equal(t, http.StatusOK, w.Code)

	var picks []history.Pick
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &picks))
	require.Len(t, picks, 1)
	assert.Equal(t, "ChIJ-plaza", picks[0].PlaceID)
	assert.Equal(t, "plaza", picks[0].Query)

	w = get(router, "/api/history?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryDisabled(t *testing.T) {
	router, _ := setupServerTest(t, nil)

	w := get(router, "/api/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
