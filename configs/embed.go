// Package configs embeds the configuration template written by
// `palicanon config init`.
//
// The same template serves the project file (.palicanon.yaml) and the user
// file (~/.config/palicanon/config.yaml). Every key is optional; values that
// are left commented fall back to the defaults in internal/config.
package configs

import _ "embed"

// ConfigTemplate is the commented configuration template.
//
//go:embed palicanon.example.yaml
var ConfigTemplate string
