// Package config loads the configuration of the discovery graph client.
//
// # Configuration Hierarchy
//
// Sources are applied in priority order (highest wins):
//  1. Default values in code
//  2. base.yaml
//  3. {environment}.yaml
//  4. local.yaml, development only
//  5. Environment variables
//
// # Environment Variables
//
// The engine endpoint keeps the DB_ prefix used by the deployed service:
//   - DB_HOST, DB_PORT, DB_NAME
//   - DB_USERNAME, DB_PASSWORD
//   - DB_CERTIFICATE_PATH enables TLS
//   - DB_CALL_TIMEOUT, DB_POLICY, DB_MAX_ROWS
//
// ENV selects the environment. LOG_LEVEL and LOG_FORMAT override logging.
// USE_MONITORING toggles metrics and tracing together.
//
// # Validation
//
// Struct tags are checked with go-playground/validator; Validate adds the
// cross-field rules tags cannot express.
//
// # Hot Reload
//
// In development ConfigWatcher reloads when a YAML file in the configuration
// directory changes and hands the new Config to registered callbacks:
//
//	watcher, err := config.NewConfigWatcher(cfg, loader, logger)
//	watcher.OnChange(func(cfg *config.Config) { /* redial */ })
//	defer watcher.Stop()
package config
