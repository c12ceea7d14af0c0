// Package uri provides the percent-encoding primitives used when building
// request lines.
package uri

import (
	"net/url"
	"strings"
)

// EscapePath percent-encodes a URL path segment by segment, preserving the
// slash structure. A path not starting with "/" is treated as "/" + path;
// an empty path yields "/". Trailing slashes survive.
func EscapePath(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s != "" {
			segments[i] = url.PathEscape(s)
		}
	}
	return strings.Join(segments, "/")
}

// EncodeQuery serializes a query table into "key=value&..." form with
// percent-encoded keys and values.
func EncodeQuery(query url.Values) string {
	return query.Encode()
}
