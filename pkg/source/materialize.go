package source

import (
	"fmt"

	"igsource/pkg/instagram"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
)

// Owner is recorded on every node this package creates
const Owner = "igsource"

// Batch is the outcome of materializing one fetch
type Batch struct {
	Nodes   []*nodes.ContentNode
	Changes []nodes.Change
}

// Count returns how many nodes had the given change
func (b *Batch) Count(c nodes.Change) int {
	n := 0
	for _, ch := range b.Changes {
		if ch == c {
			n++
		}
	}
	return n
}

// Materializer turns media records into content nodes
type Materializer struct {
	store    nodes.Store
	ids      nodes.IDGenerator
	typeName string
	logger   logger.Logger
}

// NewMaterializer creates a materializer for nodes of typeName
func NewMaterializer(store nodes.Store, ids nodes.IDGenerator, typeName string, log logger.Logger) *Materializer {
	return &Materializer{store: store, ids: ids, typeName: typeName, logger: log}
}

// NodeID returns the node id for a record id
func (m *Materializer) NodeID(sourceID string) string {
	return m.typeName + ":" + m.ids.CreateNodeID(sourceID)
}

// NodeFromRecord maps one record to a node without registering it
func (m *Materializer) NodeFromRecord(r instagram.MediaRecord) *nodes.ContentNode {
	return &nodes.ContentNode{
		ID:             m.NodeID(r.ID),
		URL:            r.MediaURL,
		Permalink:      r.Permalink,
		Caption:        r.Caption,
		Username:       r.Username,
		MediaType:      r.MediaType,
		ThumbnailURL:   r.ThumbnailURL,
		Timestamp:      r.Timestamp,
		RemoteTypeName: m.typeName,
		Internal: nodes.Internal{
			Type:          m.typeName,
			Content:       r.Caption,
			ContentDigest: nodes.ContentDigest(r.Caption),
			Owner:         Owner,
		},
	}
}

// Materialize registers one node per record, in order. The first store
// failure stops the batch.
func (m *Materializer) Materialize(records []instagram.MediaRecord) (*Batch, error) {
	batch := &Batch{
		Nodes:   make([]*nodes.ContentNode, 0, len(records)),
		Changes: make([]nodes.Change, 0, len(records)),
	}

	for _, r := range records {
		node := m.NodeFromRecord(r)
		change, err := m.store.CreateNode(node)
		if err != nil {
			return batch, fmt.Errorf("create node for media %s: %w", r.ID, err)
		}
		batch.Nodes = append(batch.Nodes, node)
		batch.Changes = append(batch.Changes, change)
	}

	m.logger.InfoWithFields("Materialized nodes", map[string]interface{}{
		"type":      m.typeName,
		"total":     len(batch.Nodes),
		"created":   batch.Count(nodes.Created),
		"updated":   batch.Count(nodes.Updated),
		"unchanged": batch.Count(nodes.Unchanged),
	})

	return batch, nil
}
