// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/filmloc/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
