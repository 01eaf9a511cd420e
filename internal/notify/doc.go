// Package notify publishes settled diagnoses to external listeners.
//
// The only transport is redis pub/sub: every record a session settles on
// is published as a JSON Event, so a dashboard or a home-automation hook
// can react to a diseased plant without polling.
package notify
