// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package credentials finds a Maps Platform API key through Google
// Application Default Credentials.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultDisplayName is the display name of the key looked up when none is configured.
const DefaultDisplayName = "Places Autocomplete Key"

// ErrKeyNotFound is returned when no key in the project has the expected display name.
var ErrKeyNotFound = errors.New("credentials: api key not found")

// Options for APIKeyFromADC.
type Options struct {
	// ProjectID overrides the project found in the credentials
	ProjectID string

	// DisplayName of the key to retrieve, DefaultDisplayName when empty
	DisplayName string
}

// keyStore is the subset of the API Keys client used here.
type keyStore interface {
	listKeys(ctx context.Context, parent string) ([]*apikeyspb.Key, error)
	keyString(ctx context.Context, name string) (string, error)
}

type apiKeysStore struct {
	client *apikeys.Client
}

func (s *apiKeysStore) listKeys(ctx context.Context, parent string) ([]*apikeyspb.Key, error) {
	it := s.client.ListKeys(ctx, &apikeyspb.ListKeysRequest{Parent: parent})

	var keys []*apikeyspb.Key

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("listing keys: %w", err)
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (s *apiKeysStore) keyString(ctx context.Context, name string) (string, error) {
	resp, err := s.client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("getting key string: %w", err)
	}

	return resp.KeyString, nil
}

// APIKeyFromADC retrieves the key string of the project's key with the
// configured display name.
func APIKeyFromADC(ctx context.Context, options *Options) (string, error) {
	if options == nil {
		options = &Options{}
	}

	projectID := options.ProjectID
	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project id in the default credentials, set one explicitly")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	return findKey(ctx, &apiKeysStore{client: client}, projectID, options.DisplayName)
}

func findKey(ctx context.Context, store keyStore, projectID, displayName string) (string, error) {
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	keys, err := store.listKeys(ctx, fmt.Sprintf("projects/%s/locations/global", projectID))
	if err != nil {
		return "", err
	}

	for _, key := range keys {
		if key.GetDisplayName() != displayName {
			continue
		}

		// ListKeys and GetKey redact the KeyString.
		log.Printf("Found key resource '%s', retrieving secret...", key.GetName())

		keyString, err := store.keyString(ctx, key.GetName())
		if err != nil {
			return "", err
		}

		if keyString == "" {
			return "", fmt.Errorf("key '%s' found but KeyString is empty", displayName)
		}

		return keyString, nil
	}

	return "", fmt.Errorf("%w: display name '%s' in project %s", ErrKeyNotFound, displayName, projectID)
}
