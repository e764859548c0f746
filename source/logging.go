package source

import (
	"log"
	"sync/atomic"
)

var debugLogging atomic.Bool

// SetDebugLogging enables or disables verbose logging inside the source package.
func SetDebugLogging(enabled bool) {
	debugLogging.Store(enabled)
}

func logDebug(format string, args ...any) {
	if debugLogging.Load() {
		log.Printf("debug: source: "+format, args...)
	}
}

func logWarning(format string, args ...any) {
	log.Printf("warning: source: "+format, args...)
}
