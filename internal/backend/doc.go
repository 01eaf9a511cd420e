// Package backend is the HTTP client for the plant diagnosis backend.
//
// The backend exposes three endpoints:
//   - POST /predict: multipart image upload, returns a classification
//     envelope whose status is success, uncertain or error
//   - POST /explain: same upload, returns a Grad-CAM heatmap as a base64
//     data URL
//   - POST /chat: JSON {message}, returns {status, response}
//
// Connections can optionally go through a SOCKS5 proxy, which is useful
// when the backend runs on a remote GPU box reachable only through an SSH
// dynamic forward.
package backend
