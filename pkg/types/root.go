// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared across pipeline stages: the
// decoded root value, the chunk-descriptor family produced by the analyzer,
// and the stage configuration structs.
// See docs/ARCHITECTURE § Pipeline Interface.
package types

// Root is the decoded top-level JSON value. It is a closed variant: exactly
// ArrayRoot, ObjectRoot, and ScalarRoot implement it, and consumers dispatch
// with an exhaustive type switch rather than runtime reflection.
type Root interface {
	// TotalItems returns the number of top-level elements: array length,
	// object key count, or 1 for a scalar.
	TotalItems() int

	isRoot()
}

// ArrayRoot is a JSON document whose top level is an ordered sequence.
type ArrayRoot struct {
	Items []any
}

func (r *ArrayRoot) TotalItems() int { return len(r.Items) }
func (r *ArrayRoot) isRoot()         {}

// ObjectRoot is a JSON document whose top level is a key-value mapping.
// Keys holds the top-level keys in document order; Values maps each key to
// its decoded value. The two fields cover the same key set.
type ObjectRoot struct {
	Keys   []string
	Values map[string]any
}

func (r *ObjectRoot) TotalItems() int { return len(r.Keys) }
func (r *ObjectRoot) isRoot()         {}

// ScalarRoot is a JSON document whose top level is a primitive: string,
// number, boolean, or null.
type ScalarRoot struct {
	Value any
}

func (r *ScalarRoot) TotalItems() int { return 1 }
func (r *ScalarRoot) isRoot()         {}
