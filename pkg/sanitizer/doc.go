// Package sanitizer cleans untrusted input before it reaches a form.
//
// Values decoded from JSON are arbitrary trees of maps, slices and scalars;
// Value walks such a tree and strips control characters from every string
// while leaving the structure intact. Path normalizes a field path sent by
// a client.
package sanitizer
