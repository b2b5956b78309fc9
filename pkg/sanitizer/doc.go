// Package sanitizer normalizes guest-supplied booking data before validation
// and storage.
//
// All functions are idempotent: applying them twice produces the same result.
// Invalid input is handled by returning an empty string rather than an error,
// leaving rejection to the validator.
//
// Normalization includes:
//   - Guest names: collapse internal whitespace, trim
//   - Emails: trim, lowercase
//   - Phone numbers: E.164 format (+[country][number])
//   - Amenity lists: lowercase, deduplicate, drop empties
package sanitizer
