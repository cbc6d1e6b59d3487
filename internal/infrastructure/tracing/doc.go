// Package tracing tags admin requests with trace and span ids.
//
// Clients may send X-Trace-ID and X-Span-ID; well-formed values are kept
// and echoed back, anything else is replaced with a fresh uuid. Finished
// spans go through a buffered channel to one collector goroutine that
// writes them to the log, dropping spans when the buffer is full. Handlers
// add the ids to their own log lines with Fields(ctx).
package tracing
