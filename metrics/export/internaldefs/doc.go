// Package internaldefs holds the shared counter naming table for the metric
// exporters, so the OTel and Prometheus views of a counter always agree on
// name and help text.
package internaldefs
