// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Searcher is what the picker and the proxy need from a Client.
type Searcher interface {
	Autocomplete(ctx context.Context, r *AutocompleteRequest) ([]Prediction, error)
	Details(ctx context.Context, r *DetailsRequest) (*PlaceDetails, error)
}

var _ Searcher = (*Client)(nil)

// NewSessionToken returns a random token to group autocomplete requests with
// the details request that ends them.
func NewSessionToken() string {
	return uuid.NewString()
}

// Session tracks the token of the autocomplete session in progress. A
// session ends with a details request; the next request starts a new one.
type Session struct {
	mu    sync.Mutex
	token string
}

// Token returns the current token, starting a session if needed.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		s.token = NewSessionToken()
	}

	return s.token
}

// End returns the current token and forgets it.
func (s *Session) End() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.token
	if token == "" {
		token = NewSessionToken()
	}

	s.token = ""

	return token
}
