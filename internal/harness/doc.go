// Package harness runs graph scenarios against the controller.
//
// A scenario names a CUE schema, creates its tables in a fresh in-memory
// SQLite database, runs graph operations through the controller and checks
// what happened: the elements each step returned, the statements it
// issued and the rows left in the tables.
//
// # Scenario Format
//
//	name: person_search
//	description: "Searching persons reads every person table"
//	schema: graph.cue
//	ids: [g1, g2]
//	setup:
//	  - op: add_vertex
//	    id: v1
//	    label: person
//	    properties: { name: marko, age: 29 }
//	steps:
//	  - op: search_vertices
//	    label: person
//	    where:
//	      - { key: age, op: gt, value: 27 }
//	    expect:
//	      ids: [v1]
//	      statements: 1
//	  - op: add_vertex
//	    id: v1
//	    label: person
//	    expect: { error: already_exists }
//	assertions:
//	  - type: final_state
//	    table: person
//	    where: { id: v1 }
//	    expect: { name: marko }
//	  - type: trace_contains
//	    op: search_vertices
//	    contains: '"age" > ?'
//
// Operations: add_vertex, add_edge, update_vertex, update_edge,
// remove_vertices, remove_edges, search_vertices, search_edges (with of
// and direction for adjacent edges) and fetch.
//
// Error kinds: already_exists, no_schema, unmapped_property,
// missing_endpoint, storage and error.
//
// # Assertion Types
//
//   - final_state: exactly one row of a table matches and carries the expected values
//   - row_count: a number of rows of a table match
//   - statement_count: the steps of an op issued a number of statements
//   - trace_contains: a step issued a statement containing a substring
//
// # Deterministic Testing
//
// Generated identities come from the scenario's ids list and then id-N,
// and every select is ordered by identity, so traces are reproducible and
// can be compared against golden files with RunWithGolden.
package harness
