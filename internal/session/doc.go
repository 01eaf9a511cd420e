// Package session implements the diagnostic session state machine.
//
// A session moves Upload → Scanning → Result and can be reset to Upload
// from any state:
//
//	Upload --Submit/SubmitDemo--> Scanning --resolution--> Result
//	   ^                                                     |
//	   +---------------------------Reset---------------------+
//
// Submit sends the image to the backend and blocks until a record is
// produced. After a successful primary call a detached task asks the
// backend for an explainability heatmap; the session's attachment loop
// attaches it only if no reset or resubmission happened in between.
//
// The session owns the display reference of the image it was given and
// releases it exactly once, on reset or when a new image replaces it.
package session
