// Package ir holds the shared vocabulary of the query front end: the
// type-resolution contract produced by the checker, the metadata object
// model consumed from schema providers, identifier folding, and the
// canonical JSON used for result fingerprints.
//
// ir imports nothing internal. Every other package may import it.
//
// Key constraints:
//   - Identifiers compare case-insensitively through Fold (NFC + Unicode folding)
//   - TypeResolution values must be compared with Equal, never with ==
//   - Canonical JSON forbids floats and nulls
//   - All JSON tags use snake_case
package ir
