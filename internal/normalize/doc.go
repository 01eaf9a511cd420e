// Package normalize converts the heterogeneous envelopes of the diagnosis
// backend into one canonical model.DiagnosticRecord.
//
// Three shapes are handled: a success with a class label, an error or
// uncertain verdict, and a transport failure synthesized locally when the
// backend could not be reached.
package normalize
