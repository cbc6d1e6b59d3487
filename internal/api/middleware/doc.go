// Package middleware holds the admin API's gin middleware: CORS with
// configurable origins and per-client-IP token buckets whose idle entries
// are evicted.
package middleware
