// Package conditional implements the If-Modified-Since / Last-Modified half
// of HTTP conditional GET.
//
// Timestamps are compared at whole-second precision, the resolution of the
// HTTP date format, so two instants inside the same second are equal.
package conditional
