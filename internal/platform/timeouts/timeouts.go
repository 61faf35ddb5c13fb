// Package timeouts defines shared timeout constants used by the contractdesk
// processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Write caps how long a handler may take to write a response.
const Write = 15 * time.Second

// Idle closes keep-alive connections left unused for this long.
const Idle = 60 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreOpen bounds opening and migrating the record store at startup.
const StoreOpen = 10 * time.Second
