// Package table provides an ordered-column, string-cell table and the
// transform operations the reconciliation pipeline composes: header
// trimming, left joins, projection, renaming, filtering and
// deduplication. All operations return a new table; a table is never
// mutated once built, so derived tables can safely share row storage.
package table
