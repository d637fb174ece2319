// Package server implements the request-dispatch core.
//
// Every inbound request goes through a [Dispatcher], which:
//
//   - Builds an immutable [RequestContext] capturing the arrival instant
//   - Resolves a [RequestHandler] through the frozen [RouteTable]
//   - Runs the handler inline, or on the worker pool when it declares
//     [Offloader.RequiresOffload]
//   - Converts handler errors and panics into a fixed 500 response
//   - Logs exactly one line per request through a [RequestLogger]
//
// Handlers that serve cacheable resources use [CheckNotModified] to answer
// conditional GETs.
package server
