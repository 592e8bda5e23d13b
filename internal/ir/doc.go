// Package ir provides the value types shared by every traiter package:
// traits, tokens and their capture groups, plus canonical JSON and the
// content-addressed IDs built on it.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - Offsets are half-open character (rune) offsets into the original text
//   - Group values are substrings of the original text
//   - Canonical JSON sorts keys by UTF-16 code units and NFC-normalizes strings
//   - All JSON tags use snake_case
package ir
