// Package utils provides small conversion helpers shared by the transports.
//
// MCP tool arguments arrive as decoded JSON (numbers are float64) and HTTP query
// parameters arrive as strings; the helpers here normalize both into Go values.
package utils
