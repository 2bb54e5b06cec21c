// Package sanitizer normalizes free text read from requests and from records
// owned by other services before it is priced, stored or shown to a user.
//
// All functions are idempotent and return an empty string for input that is
// empty after trimming.
package sanitizer
