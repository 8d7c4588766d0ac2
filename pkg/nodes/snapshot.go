package nodes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// snapshotVersion is bumped when the on-disk layout changes
const snapshotVersion = 1

// Snapshot is the persisted form of a MemoryStore
type Snapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Nodes   []*ContentNode `json:"nodes"`
	Files   []*FileNode    `json:"files"`
}

// Save writes the store to path atomically
func (s *MemoryStore) Save(path string) error {
	snapshot := Snapshot{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Nodes:   s.Nodes(""),
		Files:   s.Files(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync snapshot file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	s.logger.DebugWithFields("Snapshot saved", map[string]interface{}{
		"path":  path,
		"nodes": len(snapshot.Nodes),
		"files": len(snapshot.Files),
	})

	return nil
}

// Load replaces the store's contents with the snapshot at path. A missing
// file leaves the store empty and is not an error.
func (s *MemoryStore) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var snapshot Snapshot
	if err := json.NewDecoder(file).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	s.mu.Lock()
	s.nodes = make(map[string]*ContentNode, len(snapshot.Nodes))
	s.order = s.order[:0]
	for _, n := range snapshot.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		if _, dup := s.nodes[n.ID]; !dup {
			s.order = append(s.order, n.ID)
		}
		s.nodes[n.ID] = n
	}
	s.files = make(map[string]*FileNode, len(snapshot.Files))
	for _, f := range snapshot.Files {
		if f == nil || f.ID == "" {
			continue
		}
		s.files[f.ID] = f
	}
	s.mu.Unlock()

	s.logger.InfoWithFields("Snapshot loaded", map[string]interface{}{
		"path":     path,
		"nodes":    len(snapshot.Nodes),
		"files":    len(snapshot.Files),
		"saved_at": snapshot.SavedAt,
	})

	return nil
}

// Exists reports whether a snapshot file exists at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
