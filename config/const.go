package config

import "time"

// injected via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultAPIHost     = "127.0.0.1"
	DefaultAPIPort     = 8090
	DefaultAPIRPM      = 60

	MaxErrorBodySize = 64 * 1024 // 64 KiB
	MaxRequestSize   = 1024 * 1024 * 4

	ShutdownTimeout = 10 * time.Second
	WSWriteTimeout  = 10 * time.Second
)
