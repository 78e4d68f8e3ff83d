// Package ir provides the graph data model shared by every rowgraph package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types (values compare and encode deterministically)
//   - Element identity is an opaque IRValue; deduplication uses IdentityKey
//   - Rows are snapshots built on demand, never cached
package ir
