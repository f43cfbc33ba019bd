// Package migrations embeds the pgstore schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
