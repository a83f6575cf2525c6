//go:build !otelotlp

package otelobs

import "net/http"

// WrapHTTPHandler passes the handler through unchanged in untagged builds.
// Compile with -tags otelotlp for server-side span creation.
func WrapHTTPHandler(_ string, h http.Handler) http.Handler { return h }

// WrapHTTPTransport passes the transport through unchanged in untagged builds.
func WrapHTTPTransport(t http.RoundTripper) http.RoundTripper { return t }
