package main

import "embed"

// staticFiles holds the browser UI and the bundled dictionary.
//
//go:embed static
var staticFiles embed.FS
