// Package config loads and watches the service configuration file (config.yaml).
//
// Top-level types:
//   - Config{Log, Server, Store, Dataset, Fetch, Analysis, Alerts} — full
//     config tree parsed from YAML
//   - AnalysisConfig — series selection (per_type, start, end) plus one
//     sub-section per engine: health, trend, cluster, forecast, pattern, cache
//   - AuthConfig — mode (bearer|none), token_env; Token() resolves the value
//     from the environment so secrets never live in the file
//   - AlertsConfig — health_floor/health_ceil crossings, rules [], webhooks []
//   - FetchConfig — remote job-board API endpoint, rate limit, api_key_env
//
// Load(path) reads the YAML file, applies defaults (every tunable has one;
// see the Default* constants), then validates required fields and enums.
// A validation failure is fatal at startup and Load returns it immediately.
//
// Watch(ctx, path, onChange) uses fsnotify to detect config file changes and
// calls onChange with the newly parsed Config. WatchPath does the same for an
// arbitrary file (the daemon uses it for the dataset). Both handle the
// rename→create pattern used by atomic-save editors by re-adding the watch
// after each reload.
package config
