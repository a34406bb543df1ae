// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is a local JSON proxy to the places API. The key stays on
// the server, browser demos talk to it instead of the remote API.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
)

const defaultHistoryLimit = 20

type Server struct {
	searcher     places.Searcher
	history      history.Repository
	autocomplete places.AutocompleteRequest
	details      places.DetailsRequest
}

// Options of the server.
type Options struct {
	// History is optional, without it picks aren't recorded and
	// /api/history answers 404.
	History history.Repository

	// Autocomplete holds the defaults of every autocomplete request.
	Autocomplete places.AutocompleteRequest

	// Details holds the defaults of every details request.
	Details places.DetailsRequest
}

func NewServer(searcher places.Searcher, options *Options) *Server {
	if options == nil {
		options = &Options{}
	}

	return &Server{
		searcher:     searcher,
		history:      options.History,
		autocomplete: options.Autocomplete,
		details:      options.Details,
	}
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.healthz)
	r.GET("/api/autocomplete", s.autocompleteHandler)
	r.GET("/api/places/:place_id", s.detailsHandler)
	r.GET("/api/history", s.historyHandler)

	return r
}

func (s *Server) Run(addr string) error {
	log.Printf("Serving places API on http://%s", addr)

	return s.Router().Run(addr)
}

func (s *Server) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func badRequest(ctx *gin.Context, format string, args ...any) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...), "type": places.ErrorTypeInvalidRequest.String()})
}

// statusFor maps an error of the places API to the status of the proxy response.
func statusFor(err error) int {
	switch {
	case errors.Is(err, places.ErrMissingAPIKey):
		return http.StatusInternalServerError
	case places.IsArgumentError(err):
		return http.StatusBadRequest
	}

	switch places.ErrorTypeOf(err) {
	case places.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case places.ErrorTypeNotFound:
		return http.StatusNotFound
	case places.ErrorTypeRateLimit, places.ErrorTypeQuotaExceeded:
		return http.StatusTooManyRequests
	case places.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func apiError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}

	ctx.JSON(status, gin.H{"error": err.Error(), "type": places.ErrorTypeOf(err).String()})
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var out []string

	for _, v := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}

func (s *Server) autocompleteHandler(ctx *gin.Context) {
	input := ctx.Query("input")
	if strings.TrimSpace(input) == "" {
		badRequest(ctx, "input query parameter is required")

		return
	}

	r := s.autocomplete
	r.Input = input
	r.SessionToken = ctx.Query("sessiontoken")

	if v := ctx.Query("location"); v != "" {
		point, err := spatial.ParsePoint(v)
		if err != nil {
			badRequest(ctx, "invalid location parameter: %v", err)

			return
		}

		r.Location = &point
	}

	if v := ctx.Query("radius"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius < 0 {
			badRequest(ctx, "invalid radius parameter %q", v)

			return
		}

		r.Radius = radius
	}

	if v := ctx.Query("strictbounds"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(ctx, "invalid strictbounds parameter %q", v)

			return
		}

		r.StrictBounds = strict
	}

	if v := ctx.Query("language"); v != "" {
		r.Language = v
	}

	if v := splitList(ctx.Query("types")); v != nil {
		r.Types = v
	}

	if v := splitList(ctx.Query("countries")); v != nil {
		r.Countries = v
	}

	predictions, err := s.searcher.Autocomplete(ctx.Request.Context(), &r)
	if err != nil {
		apiError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, predictions)
}

func (s *Server) detailsHandler(ctx *gin.Context) {
	r := s.details
	r.PlaceID = ctx.Param("place_id")
	r.SessionToken = ctx.Query("sessiontoken")

	if v := ctx.Query("language"); v != "" {
		r.Language = v
	}

	details, err := s.searcher.Details(ctx.Request.Context(), &r)
	if err != nil {
		apiError(ctx, err)

		return
	}

	if s.history != nil {
		pick := history.NewPick(details, ctx.Query("q"))
		if err := s.history.Record(ctx.Request.Context(), pick); err != nil {
			// the lookup succeeded, a failure to record it doesn't fail the request
			log.Printf("Failed to record pick %s: %v", details.PlaceID, err)
		}
	}

	ctx.JSON(http.StatusOK, details)
}

func (s *Server) historyHandler(ctx *gin.Context) {
	if s.history == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})

		return
	}

	limit := defaultHistoryLimit

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(ctx, "invalid limit parameter %q", v)

			return
		}

		limit = n
	}

	picks, err := s.history.List(ctx.Request.Context(), ctx.Query("q"), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, picks)
}
