// Package assistant implements the plant-care chat assistant on top of
// the backend's chat endpoint.
package assistant
