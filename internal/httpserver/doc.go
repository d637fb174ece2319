// Package httpserver runs an http.Handler on a validated listen address
// with graceful shutdown.
package httpserver
