// Package logging builds the host's zap logger.
//
// Production writes JSON with "timestamp", "component" and "message" keys
// and, when configured, a "bundle" field on every line. Development writes
// coloured console output. Subsystems get a named child through Component
// (application, context, bundle, http, ws, tracing, system-source).
package logging
