// Package pipeline runs images through the diagnosis steps.
//
// A Job goes through a sequence of Steps:
//  1. LoadStep reads and validates the image file
//  2. DiagnoseStep submits it to a session and captures the record
//  3. HeatmapStep waits briefly for the explainability overlay
//
// BatchProcessor runs many jobs concurrently with errgroup, each in its
// own session, and returns the diagnoses in input order.
package pipeline
