package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlieegan3/exiflab/pkg/objects"
	"github.com/charlieegan3/exiflab/pkg/session"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

type memSessions struct {
	mu   sync.Mutex
	rows map[string]stores.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[string]stores.Session)}
}

func (m *memSessions) CreateSession(ctx context.Context, filename, sourceFormat string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.rows[id] = stores.Session{
		ID:           id,
		Filename:     filename,
		SourceFormat: sourceFormat,
		Snapshot:     session.Snapshot{State: session.StateEmpty},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	return id, nil
}

func (m *memSessions) GetSession(ctx context.Context, id string) (*stores.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", stores.ErrSessionNotFound, id)
	}

	return &row, nil
}

func (m *memSessions) UpdateSession(ctx context.Context, s *stores.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[s.ID]; !ok {
		return fmt.Errorf("%w: %q", stores.ErrSessionNotFound, s.ID)
	}
	s.UpdatedAt = time.Now()
	m.rows[s.ID] = *s

	return nil
}

func (m *memSessions) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, id)

	return nil
}

type memObjects struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (m *memObjects) Put(ctx context.Context, key, contentType string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = append([]byte(nil), content...)
	m.contentTypes[key] = contentType

	return nil
}

func (m *memObjects) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", objects.ErrNotFound, key)
	}

	return content, nil
}

func (m *memObjects) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.objects {
		if inSession(key, id) {
			delete(m.objects, key)
		}
	}

	return nil
}

func (m *memObjects) Files(ctx context.Context, id string) ([]objects.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var files []objects.File
	for key, content := range m.objects {
		if inSession(key, id) {
			files = append(files, objects.File{Key: key, Size: int64(len(content)), ContentType: m.contentTypes[key]})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })

	return files, nil
}

func inSession(key, id string) bool {
	return strings.HasPrefix(key, "data/"+id+"/") || strings.HasPrefix(key, objects.MetaPrefix(id))
}
