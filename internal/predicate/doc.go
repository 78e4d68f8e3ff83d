// Package predicate provides the boolean predicate tree that graph queries
// hand to rowgraph.
//
// A Holder is an immutable AND/OR combination of Has leaves (key, operator,
// operand) and nested holders. A holder may be aborted: an unsatisfiable
// tree that short-circuits an operation to an empty result without touching
// storage.
//
// TREE SHAPES:
//
//	Empty()            no constraint (matches everything)
//	Abort()            unsatisfiable (matches nothing)
//	And(h1, h2, ...)   every member must hold
//	Or(h1, h2, ...)    at least one member must hold
//
// The factories normalize as they combine:
//
//	And: any aborted member aborts; empty members are dropped
//	Or:  aborted members are dropped; Or over nothing aborts;
//	     any empty member makes the whole Or empty
//
// A single surviving member is returned unchanged and nested holders with
// the same clause are flattened, so trees stay shallow.
//
// RESERVED KEYS:
//
// KeyID and KeyLabel address element identity and label rather than a
// property. Schemas map KeyID onto their identity column and decide KeyLabel
// statically against the label they store.
//
// REWRITING:
//
// Holder.Rewrite restates a tree leaf by leaf. Each leaf may be replaced or
// decided to a constant; constants fold through And/Or. A tree folding to
// false becomes Abort(), one folding to true becomes Empty().
package predicate
