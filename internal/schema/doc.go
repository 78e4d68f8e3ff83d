// Package schema binds graph element kinds to relational tables.
//
// A Definition names a table, its identity column, its label (fixed or
// stored per row) and the columns that hold element properties. Vertex and
// edge tables built from definitions convert elements to rows and back, and
// restate element-level predicate trees over their own columns.
//
// Restatement is three-valued: leaves that the table can decide without
// the database (a fixed label, a property it has no column for) fold into
// the tree as true or false, so a tree that can never match a table comes
// back aborted and the table is skipped.
//
// Definitions are usually written in CUE and compiled with Load.
package schema
