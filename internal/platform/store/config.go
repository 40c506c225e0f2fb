package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// Guard/boot knobs:
	ConnectRetries int           // default 6 (63s(ish) max with exponential backoff)
	PingTimeout    time.Duration // default 5s
}

// CHConfig configures clickhouse connectivity
// ClientName and ClientTag flow into the driver client info
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}
