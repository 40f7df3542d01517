package gallery

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	DefaultPreviewPrefix = "/eventos/previews/"
)

type preview struct {
	contentType string
	data        []byte
}

/*
PreviewStore holds the bytes behind the local preview URLs of files waiting
to be uploaded. Each URL must be revoked exactly once; revoking an unknown or
already revoked URL is a no-op.
*/
type PreviewStore struct {
	mu       sync.Mutex
	prefix   string
	previews map[string]preview
}

func NewPreviewStore(prefix string) *PreviewStore {
	if prefix == "" {
		prefix = DefaultPreviewPrefix
	}

	return &PreviewStore{
		prefix:   prefix,
		previews: map[string]preview{},
	}
}

func (s *PreviewStore) Create(contentType string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.previews[id] = preview{contentType: contentType, data: data}

	return s.prefix + id
}

func (s *PreviewStore) Open(id string) (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.previews[strings.TrimPrefix(id, s.prefix)]
	return p.contentType, p.data, ok
}

/*
Revoke releases the preview behind url and reports whether it was still live.
*/
func (s *PreviewStore) Revoke(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimPrefix(url, s.prefix)

	if _, ok := s.previews[id]; !ok {
		return false
	}

	delete(s.previews, id)
	return true
}

func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.previews)
}
