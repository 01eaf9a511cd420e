// Package metrics exposes Prometheus counters for diagnosis sessions.
//
// plantdoc is a short-lived CLI, so series are not scraped over HTTP.
// They are written once at exit with WriteTextfile when --metrics-file is
// set.
package metrics
