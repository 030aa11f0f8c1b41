package utils

import (
	"log"

	"github.com/rollbar/rollbar-go"
)

var reportingEnabled bool

// InitErrorReporting points Rollbar at the given token. An empty token keeps reporting off
// and ReportError only logs.
func InitErrorReporting(token, env, codeVersion string) {
	if token == "" {
		rollbar.SetEnabled(false)
		reportingEnabled = false
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetServerRoot("community-hub")
	rollbar.SetEnabled(true)
	reportingEnabled = true
}

// ReportError logs err under tag and forwards it to Rollbar when enabled.
// extras is attached as custom data (member id, step id, ...).
func ReportError(tag string, err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	log.Printf("❌ [%s] %v %v", tag, err, extras)
	if !reportingEnabled {
		return
	}
	custom := map[string]interface{}{"tag": tag}
	for k, v := range extras {
		custom[k] = v
	}
	rollbar.Error(err, custom)
}

// FlushErrorReports waits for queued reports on shutdown.
func FlushErrorReports() {
	if reportingEnabled {
		rollbar.Wait()
	}
}
