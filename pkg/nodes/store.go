package nodes

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"igsource/pkg/logger"
)

var (
	// ErrNodeNotFound is returned when an operation names an unknown node
	ErrNodeNotFound = errors.New("node not found")

	// ErrFieldAlreadySet is returned when a field would be overwritten with a different value
	ErrFieldAlreadySet = errors.New("field already set")
)

// Store is the content graph node store
type Store interface {
	CreateNode(node *ContentNode) (Change, error)
	CreateFileNode(file *FileNode) (Change, error)
	AddNodeField(nodeID, name, value string) error
	GetNode(id string) (*ContentNode, bool)
	GetFileNode(id string) (*FileNode, bool)
	Nodes(typeName string) []*ContentNode
	DeleteStale(typeName string, keep []string) []string
}

// MemoryStore is an in-memory Store safe for concurrent use. Nodes are
// returned in first-creation order.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[string]*ContentNode
	order  []string
	files  map[string]*FileNode
	logger logger.Logger
}

// NewMemoryStore creates an empty store
func NewMemoryStore(log logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &MemoryStore{
		nodes:  make(map[string]*ContentNode),
		files:  make(map[string]*FileNode),
		logger: log,
	}
}

// CreateNode registers node, replacing any node with the same id. Attached
// fields are reset so the new node starts bare.
func (s *MemoryStore) CreateNode(node *ContentNode) (Change, error) {
	if node == nil || node.ID == "" {
		return Unchanged, fmt.Errorf("create node: missing id")
	}
	if node.Internal.Type == "" {
		return Unchanged, fmt.Errorf("create node %s: missing internal.type", node.ID)
	}
	if node.Internal.ContentDigest == "" {
		return Unchanged, fmt.Errorf("create node %s: missing internal.contentDigest", node.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := node.clone()
	stored.Fields = nil

	change := Created
	if existing, ok := s.nodes[node.ID]; ok {
		change = Updated
		if existing.Internal.ContentDigest == node.Internal.ContentDigest {
			change = Unchanged
		}
	} else {
		s.order = append(s.order, node.ID)
	}
	s.nodes[node.ID] = stored

	s.logger.DebugWithFields("node registered", map[string]interface{}{
		"node_id": node.ID,
		"type":    node.Internal.Type,
		"change":  change.String(),
	})

	return change, nil
}

// CreateFileNode registers a file node, replacing any with the same id
func (s *MemoryStore) CreateFileNode(file *FileNode) (Change, error) {
	if file == nil || file.ID == "" {
		return Unchanged, fmt.Errorf("create file node: missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	change := Created
	if existing, ok := s.files[file.ID]; ok {
		change = Updated
		if existing.Internal.ContentDigest == file.Internal.ContentDigest {
			change = Unchanged
		}
	}
	c := *file
	s.files[file.ID] = &c

	return change, nil
}

// AddNodeField attaches a named field to an existing node. Setting a field
// again to the same value is a no-op.
func (s *MemoryStore) AddNodeField(nodeID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("add field %q: %w: %s", name, ErrNodeNotFound, nodeID)
	}
	if current, exists := node.Fields[name]; exists {
		if current == value {
			return nil
		}
		return fmt.Errorf("add field %q to %s: %w", name, nodeID, ErrFieldAlreadySet)
	}
	if node.Fields == nil {
		node.Fields = make(map[string]string)
	}
	node.Fields[name] = value
	return nil
}

// GetNode returns a copy of the node with the given id
func (s *MemoryStore) GetNode(id string) (*ContentNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return node.clone(), true
}

// GetFileNode returns a copy of the file node with the given id
func (s *MemoryStore) GetFileNode(id string) (*FileNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, false
	}
	c := *file
	return &c, true
}

// Nodes returns copies of all nodes of typeName; an empty typeName returns
// every node
func (s *MemoryStore) Nodes(typeName string) []*ContentNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ContentNode, 0, len(s.order))
	for _, id := range s.order {
		node := s.nodes[id]
		if typeName == "" || node.Internal.Type == typeName {
			result = append(result, node.clone())
		}
	}
	return result
}

// Files returns copies of all file nodes sorted by id
func (s *MemoryStore) Files() []*FileNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*FileNode, 0, len(s.files))
	for _, f := range s.files {
		c := *f
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DeleteStale removes nodes of typeName whose id is not in keep, along with
// file nodes parented to them. It returns the removed node ids.
func (s *MemoryStore) DeleteStale(typeName string, keep []string) []string {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	order := s.order[:0]
	for _, id := range s.order {
		node := s.nodes[id]
		if _, ok := keepSet[id]; ok || node.Internal.Type != typeName {
			order = append(order, id)
			continue
		}
		delete(s.nodes, id)
		removed = append(removed, id)
	}
	s.order = order

	if len(removed) > 0 {
		gone := make(map[string]struct{}, len(removed))
		for _, id := range removed {
			gone[id] = struct{}{}
		}
		for id, f := range s.files {
			if _, ok := gone[f.Parent]; ok {
				delete(s.files, id)
			}
		}
		s.logger.InfoWithFields("stale nodes removed", map[string]interface{}{
			"type":  typeName,
			"count": len(removed),
		})
	}

	return removed
}
