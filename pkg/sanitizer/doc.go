// Package sanitizer normalizes user-supplied text before validation and
// storage.
//
// All functions are idempotent and never fail: invalid input yields an empty
// string or slice instead of an error.
//
// Normalization includes:
//   - Free text (purpose, reasons, descriptions): trim and collapse whitespace, drop control characters
//   - Categories and labels: lowercase, non-alphanumerics become "_" - "Meeting Room" becomes "meeting_room"
//   - Identifiers: trimmed, inner whitespace removed
//   - Slices: normalized, deduplicated, empties dropped
package sanitizer
