// Package server assembles the ability runtime: it loads the bundle, seeds
// the master configuration, builds the Application and serves the admin API,
// the broadcast stream and Prometheus metrics.
package server
