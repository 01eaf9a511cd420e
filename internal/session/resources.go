package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nao1215/plantdoc/internal/acquire"
	"github.com/nao1215/plantdoc/internal/model"
)

// refScheme prefixes every issued image reference.
const refScheme = "blob:plantdoc/"

// ImageStore issues display references for accepted images and takes them
// back. A session calls Release exactly once per reference it obtained.
type ImageStore interface {
	// Put takes ownership of img and returns its display reference.
	Put(img *acquire.Image) model.ImageRef

	// Release frees the reference. It returns ErrNotHeld when ref is
	// unknown or already released.
	Release(ref model.ImageRef) error
}

// MemoryStore is an in-process ImageStore. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	held map[string]*acquire.Image
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{held: make(map[string]*acquire.Image)}
}

// Put stores img under a fresh reference.
func (m *MemoryStore) Put(img *acquire.Image) model.ImageRef {
	ref := model.ImageRef{
		URL:         refScheme + uuid.NewString(),
		Name:        img.Name,
		ContentType: img.ContentType,
		Size:        len(img.Data),
		Fingerprint: img.Fingerprint,
		Metadata:    img.Metadata,
	}

	m.mu.Lock()
	m.held[ref.URL] = img
	m.mu.Unlock()
	return ref
}

// Release drops the image behind ref.
func (m *MemoryStore) Release(ref model.ImageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[ref.URL]; !ok {
		return ErrNotHeld
	}
	delete(m.held, ref.URL)
	return nil
}

// Get returns the image behind ref while it is held.
func (m *MemoryStore) Get(ref model.ImageRef) (*acquire.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	img, ok := m.held[ref.URL]
	return img, ok
}

// Live returns the number of references currently held.
func (m *MemoryStore) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}
