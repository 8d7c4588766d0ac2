// Package nodes holds the content graph: content and file nodes, stable id
// generation, content digests, and an in-memory store that persists to a
// JSON snapshot between runs.
package nodes
