// Package metrics defines the Prometheus collectors graphctl records while it runs: device-code
// prompts, token acquisitions and Graph requests. A CLI process is short-lived, so instead of
// serving /metrics the registry can be written to a node-exporter textfile on exit.
package metrics
