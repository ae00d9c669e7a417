package services

import (
	"log"
	"os"
	"strings"
)

var analysisDebugEnabled = false

func init() {
	// Enable debug logging if ANALYSIS_DEBUG=1 or ANALYSIS_DEBUG=true
	if v := os.Getenv("ANALYSIS_DEBUG"); v != "" {
		v = strings.ToLower(v)
		analysisDebugEnabled = v == "1" || v == "true" || v == "yes"
		if analysisDebugEnabled {
			log.Println("[ANALYSIS] Debug logging: ENABLED")
		}
	}
}

// debugLog logs only when ANALYSIS_DEBUG is enabled.
// Use this for verbose per-article details, matched EV notations, cache
// hits/misses, etc.
func debugLog(format string, args ...interface{}) {
	if analysisDebugEnabled {
		log.Printf("[ANALYSIS DEBUG] "+format, args...)
	}
}

// infoLog always logs important analysis events.
// Use this for extraction fallback triggers, API errors, cache stats, etc.
func infoLog(format string, args ...interface{}) {
	log.Printf("[ANALYSIS] "+format, args...)
}
