// Package model defines the data structures shared by the diagnostic
// session, the backend client and the report writers.
//
// This package contains the following main types:
//   - DiagnosticRecord: the normalized outcome of one session
//   - Status: the healthy / warning / danger severity tier
//   - SeverityTable: the total mapping from backend class labels to Status
//   - Catalog: the injected table of canned demo results
//   - ImageRef, HeatmapRef: references owned by a session
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. The session, normalizer and report packages all
// need these types.
package model
