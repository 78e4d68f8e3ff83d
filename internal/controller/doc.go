// Package controller maps graph operations onto relational tables.
//
// A Controller serves a schema.Set: every vertex operation fans out over the
// vertex tables and every edge operation over the edge tables. Each table
// restates the caller's predicate tree over its own columns; a table whose
// restatement can never match gets no statement at all.
//
// Searches are lazy iter.Seq2 sequences. Rows are mapped back to elements
// by the first schema in set order that accepts them and deduplicated by
// identity, so an element stored in several tables is returned once.
//
// Mutations write to every table that applies to the element. Inserts fail
// with an AlreadyExistsError on an identity conflict; failures of the
// database itself are StorageErrors.
package controller
