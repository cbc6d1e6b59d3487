// Command server hosts one application's configuration pipeline.
//
//	server [serve] [--port 8000] [--host 0.0.0.0] [--bundle-dir ./modules] [--dev] [--log-level debug]
//	server replay [-v] <scenario.yaml|toml|json>
//
// serve reads its settings from the environment (see
// internal/infrastructure/config), lets the flags above override them, and
// shuts down gracefully on SIGINT or SIGTERM.
//
// replay runs a scenario through a fresh application, prints one line per
// step and exits non-zero when any expectation fails:
//
//	server replay internal/scenario/testdata/color-override.yaml
package main
