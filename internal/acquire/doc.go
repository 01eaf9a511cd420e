// Package acquire turns a file or a stream into an Image ready for
// diagnosis.
//
// It enforces that the content really is an image (sniffed, not trusted
// from the file extension), caps its size, fingerprints it with SHA3-256
// and extracts a small amount of EXIF metadata with go-exif.
package acquire
