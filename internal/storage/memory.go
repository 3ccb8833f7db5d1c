package storage

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process backend. Contents are lost when the process exits.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func memoryKey(principalID, module string) string {
	return principalID + "/" + module
}

func (m *Memory) Read(ctx context.Context, principalID, module string) ([]byte, bool, error) {
	if err := validateKey(principalID, module); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[memoryKey(principalID, module)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *Memory) Write(ctx context.Context, principalID, module string, data []byte) error {
	if err := validateKey(principalID, module); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[memoryKey(principalID, module)] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context, principalID string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := principalID + "/"
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
