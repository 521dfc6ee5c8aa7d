// Package prometheus renders the gateway counters in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a gateway and exposes an [http.Handler]
// suitable for mounting at /metrics. Counter names are prefixed
// gatekit_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the
//     Handler.
//   - Mutate gateway state.
package prometheus
