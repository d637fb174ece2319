// Package handlers contains the request handlers served by the widget
// server: the index page, command and proxy widgets, static files, the
// embedded stylesheet and the debug pages.
//
// Handlers that run subprocesses, read files or call upstreams declare
// RequiresOffload so the dispatcher runs them on the worker pool.
package handlers
