package cuckoo

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger sets the logger used for diagnostics. Everything is logged at
// debug level; the default discards it.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "cuckoo").Logger()
}
