// Package logging configures slog for palicanon.
//
// Logs are JSON lines written to ~/.palicanon/logs/palicanon.log with size-based
// rotation, optionally mirrored to stderr. The MCP server runs with stderr mirroring
// disabled because stdout carries the protocol stream.
package logging
