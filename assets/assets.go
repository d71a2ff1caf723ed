// Package assets embeds the stylesheet and script served under /assets.
package assets

import "embed"

//go:embed css/* js/*
var Assets embed.FS
