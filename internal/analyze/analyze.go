// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze classifies the root JSON value and partitions its content
// into exactly N chunk descriptors. Partitioning is deterministic: the same
// input and target count always produce the same slice boundaries,
// duplicate/merge decisions, and fingerprints.
// See docs/ARCHITECTURE § Partitioning.
package analyze

import (
	"github.com/pdiddy/jsonpdf/pkg/types"
)

// Shape classifies the top-level structure of the document.
type Shape string

const (
	ShapeArray     Shape = "array"
	ShapeObject    Shape = "object"
	ShapePrimitive Shape = "primitive"
)

// complexityMaxDepth bounds the recursion of the complexity walk so
// pathologically nested inputs stay cheap to score.
const complexityMaxDepth = 10

// Classification describes the root value: its shape, the number of
// top-level elements, and an informational complexity score. Complexity is a
// monotonically increasing function of the total element count across
// nesting levels; it never feeds back into partitioning.
type Classification struct {
	Shape      Shape
	TotalItems int
	Complexity int
}

// Analyze inspects the decoded root and classifies it.
func Analyze(root types.Root) Classification {
	switch r := root.(type) {
	case *types.ArrayRoot:
		return Classification{
			Shape:      ShapeArray,
			TotalItems: r.TotalItems(),
			Complexity: complexityOf(r.Items, 0),
		}
	case *types.ObjectRoot:
		return Classification{
			Shape:      ShapeObject,
			TotalItems: r.TotalItems(),
			Complexity: complexityOf(r.Values, 0),
		}
	case *types.ScalarRoot:
		return Classification{
			Shape:      ShapePrimitive,
			TotalItems: 1,
			Complexity: 1,
		}
	default:
		// The Root variant is closed; this is unreachable for values built
		// by the loader.
		return Classification{Shape: ShapePrimitive, TotalItems: 1, Complexity: 1}
	}
}

// complexityOf scores a decoded value: containers contribute their length
// plus the scores of their elements, everything else counts 1. Beyond the
// depth cap a value counts 1 regardless of shape.
func complexityOf(v any, depth int) int {
	if depth > complexityMaxDepth {
		return 1
	}
	switch vv := v.(type) {
	case map[string]any:
		total := len(vv)
		for _, child := range vv {
			total += complexityOf(child, depth+1)
		}
		return total
	case []any:
		total := len(vv)
		for _, child := range vv {
			total += complexityOf(child, depth+1)
		}
		return total
	default:
		return 1
	}
}
