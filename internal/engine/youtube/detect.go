package youtube

import (
	"os"
	"sync"
)

// Platform PaaS markers. Shared egress IPs on these platforms trip
// YouTube's bot detection far more often than residential or dedicated
// cloud IPs, so the acquirer switches to stricter pacing when one is set.
var constrainedEnvVars = []string{
	"DYNO",                    // Heroku
	"RENDER",                  // Render
	"RAILWAY_ENVIRONMENT",     // Railway
	"FLY_APP_NAME",            // Fly.io
	"K_SERVICE",               // Cloud Run
	"AWS_EXECUTION_ENV",       // Lambda / ECS
	"KUBERNETES_SERVICE_HOST", // any k8s pod
}

var (
	constrainedOnce sync.Once
	constrained     bool
)

// ConstrainedEnvironment reports whether the process runs on shared
// cloud infrastructure. Computed once; the environment does not change
// at runtime.
func ConstrainedEnvironment() bool {
	constrainedOnce.Do(func() {
		for _, v := range constrainedEnvVars {
			if os.Getenv(v) != "" {
				constrained = true
				return
			}
		}
		if _, err := os.Stat("/.dockerenv"); err == nil {
			constrained = true
		}
	})
	return constrained
}
