// Package clients provides a Go client for the registrar HTTP API served by
// package httpserver.
package clients
