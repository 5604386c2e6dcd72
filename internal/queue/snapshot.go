package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SaveSnapshot serializes every queue's current contents (not dedup
// memory, not subscribers) to path as indented JSON, creating parent
// directories as needed. This is the best-effort, collaborator-visible
// persistence hint named in §4.5/§6: in-process correctness never
// depends on it.
//
// An advisory file lock guards the write so two engine instances
// sharing a snapshot path don't interleave writes into the same file.
func (m *Manager) SaveSnapshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking snapshot: %w", err)
	}
	defer lock.Unlock()

	m.mu.Lock()
	snapshot := make(map[string][]string, len(m.queues))
	for name, q := range m.queues {
		items := make([]string, len(q.items))
		copy(items, q.items)
		snapshot[name] = items
	}
	m.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot restores queue contents from path, replacing whatever the
// named queues currently hold. A missing file is not an error — a fresh
// Manager with no snapshot yet is the normal startup state.
func (m *Manager) LoadSnapshot(path string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking snapshot: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var snapshot map[string][]string
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, items := range snapshot {
		q := m.getOrCreate(name)
		q.items = append([]string(nil), items...)
	}
	return nil
}
