// Package exporter serializes result tables for delivery: a single-sheet
// xlsx byte stream for the HTTP download path and a BOM-prefixed CSV file
// for the CLI.
package exporter
