// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/places/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
