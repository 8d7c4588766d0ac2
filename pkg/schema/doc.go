// Package schema declares the GraphQL shape of sourced nodes.
//
// A Registry stores object type declarations and computed field resolvers,
// renders them as SDL and resolves field values for individual nodes. Link
// fields (@link(from: ...)) follow a node path to a file node id.
package schema
