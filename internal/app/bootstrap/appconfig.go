// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request limits. AppConfig
// is where everything specific to this application lives.
type AppConfig struct {
	// Document store configuration. An empty MongoURI selects the
	// embedded in-process store, which keeps all data in memory for
	// the lifetime of the process. Any other value connects to MongoDB.
	MongoURI         string // MongoDB connection string, or "" for the embedded store
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Operation timeout tiers, applied to the shared timeouts package
	// during Startup.
	TimeoutPing   time.Duration // Health-check pings
	TimeoutShort  time.Duration // Single-document reads
	TimeoutMedium time.Duration // List queries and moderate writes
}
