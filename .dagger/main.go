// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// CI pipeline of the places CLI
package main

import (
	"context"
	"dagger/places/internal/dagger"
)

type Places struct{}

// Runs the unit tests
func (p *Places) Test(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build"]
	src *dagger.Directory,
) (string, error) {
	return p.BuildCliBase(ctx, src).
		WithExec([]string{"go", "test", "-race", "-count=1", "./..."}).
		Stdout(ctx)
}

// Runs the tests and the validations, then builds the runtime image
func (p *Places) Ci(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build"]
	src *dagger.Directory,
) (*dagger.Container, error) {
	if _, err := p.Test(ctx, src); err != nil {
		return nil, err
	}

	if _, err := p.BuildCliValidate(ctx, src).Sync(ctx); err != nil {
		return nil, err
	}

	return p.BuildCli(ctx, src), nil
}
