package acquire

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/plantdoc/internal/model"
)

// DefaultMaxImageSize caps the size of an accepted image. Phone photos are
// usually under 8MB; anything larger is unlikely to be a single leaf shot.
const DefaultMaxImageSize = 10 * 1024 * 1024

// Acquisition errors.
var (
	// ErrEmptyImage is returned when the input has no bytes.
	ErrEmptyImage = errors.New("image is empty")

	// ErrNotImage is returned when the content is not an image/* type.
	ErrNotImage = errors.New("file is not an image")

	// ErrImageTooLarge is returned when the input exceeds the size cap.
	ErrImageTooLarge = errors.New("image exceeds maximum size")
)

// Image is a raw image accepted for diagnosis.
type Image struct {
	// Name is the base file name sent in the multipart upload.
	Name string

	// ContentType is the sniffed media type, always image/*.
	ContentType string

	// Data is the raw payload.
	Data []byte

	// Fingerprint is the hex SHA3-256 of Data.
	Fingerprint string

	// Metadata is nil when the image carries no readable EXIF block.
	Metadata *model.ImageMetadata
}

// Option configures how images are read.
type Option func(*loader)

type loader struct {
	maxSize int64
	exif    bool
}

// WithMaxSize overrides DefaultMaxImageSize. Non-positive values are
// ignored.
func WithMaxSize(n int64) Option {
	return func(l *loader) {
		if n > 0 {
			l.maxSize = n
		}
	}
}

// WithoutEXIF skips metadata extraction.
func WithoutEXIF() Option {
	return func(l *loader) {
		l.exif = false
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{maxSize: DefaultMaxImageSize, exif: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads an image from path.
func Load(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path) //nolint:gosec // the user chooses which file to diagnose
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f, opts...)
}

// Read reads an image from r. Content that does not sniff as image/* is
// rejected with ErrNotImage, mirroring a picker that only accepts images.
func Read(name string, r io.Reader, opts ...Option) (*Image, error) {
	l := newLoader(opts)

	// Read one byte past the cap so an oversize input is detected without
	// loading all of it.
	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, l.maxSize)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}

	if name == "" {
		name = "image" + extensionFor(contentType)
	}

	img := &Image{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Fingerprint: Fingerprint(data),
	}
	if l.exif {
		img.Metadata = ExtractMetadata(data)
	}
	return img, nil
}

// Fingerprint returns the hex SHA3-256 digest of data.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 12 hex characters, enough to tell
// images apart in logs.
func (i *Image) ShortFingerprint() string {
	if len(i.Fingerprint) < 12 {
		return i.Fingerprint
	}
	return i.Fingerprint[:12]
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
