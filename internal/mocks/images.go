package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/multilingual-news-api/internal/storage"
)

type storedImage struct {
	contentType string
	data        []byte
	modTime     time.Time
}

// MockImageStore keeps images in memory with the key rules of the real
// stores.
type MockImageStore struct {
	mu      sync.Mutex
	objects map[string]storedImage

	// Err, when set, is returned by Put.
	Err error
}

var _ storage.ImageStore = (*MockImageStore)(nil)

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{objects: make(map[string]storedImage)}
}

func (m *MockImageStore) Put(ctx context.Context, key, contentType string, r io.Reader) (*storage.ObjectInfo, error) {
	if !storage.ValidKey(key) {
		return nil, storage.ErrInvalidKey
	}
	if m.Err != nil {
		return nil, m.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storedImage{contentType: contentType, data: data, modTime: time.Now()}
	return &storage.ObjectInfo{Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *MockImageStore) Open(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}
	info := &storage.ObjectInfo{Key: key, ContentType: obj.contentType, Size: int64(len(obj.data)), ModTime: obj.modTime}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	if !storage.ValidKey(key) {
		return storage.ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Keys returns the stored keys.
func (m *MockImageStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
