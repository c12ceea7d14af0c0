// Package constants defines magic numbers and default values used throughout go-httpipe
package constants

import "time"

// Engine identity
const (
	EngineVersion = "1.0.0"
	UserAgent     = "go-httpipe/" + EngineVersion
)

// Connection timeouts and pooling
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultPoolSize       = 30
)

// Read limits
const (
	DefaultChunkSize = 8192
)

// Buffer limits
const (
	DefaultBodyMemLimit = 4 * 1024 * 1024 // 4MB
)
