// Package sanitizer normalises client contact details before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result.
// Unparseable input is returned trimmed so the validator can report it.
package sanitizer
