// Package config loads the widget server configuration from a YAML file and
// WIDGETS_ prefixed environment variables, and validates it: listen
// addresses, worker pool sizing, logging, the main page, proxy settings,
// debug pages and the list of command, proxy and static routes.
package config
