// Package config holds the CLI client settings.
//
// Values are resolved in order: LoadDefaults, an optional JSON or YAML file
// (ApplyFile), the IDEFORGE_* environment (ApplyEnv), and finally the
// command-line flags bound by the cli package. Later sources win.
//
// File keys:
//
//	server_url:   base URL of the ideforge API, e.g. "http://localhost:3000"
//	session_path: SQLite file holding the saved session
//	timeout:      per-request timeout, e.g. "90s" (timex.Duration)
package config
