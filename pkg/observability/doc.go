/*
Package observability provides tools for monitoring the tick engine.

It includes Prometheus metrics fed by lifecycle hooks, OpenTelemetry tracing of
turns and handler invocations, and helpers to combine several sets of hooks.
*/
package observability
