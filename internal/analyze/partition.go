// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

// Partition splits the root value's content into exactly n chunk
// descriptors. Arrays and objects are cut in original order every
// max(1, total/n) elements; scalars are replicated n times. The natural
// slice list is then normalized to exactly n: too few slices are padded by
// cloning the smallest, too many are reduced by merging the two smallest.
// The final list carries sequence IDs 1..n and payload fingerprints.
//
// n <= 0 is a configuration error. Any well-formed decoded value partitions
// without error.
func Partition(root types.Root, n int) ([]types.Chunk, error) {
	if n <= 0 {
		return nil, fmt.Errorf("target chunk count must be positive, got %d", n)
	}

	var chunks []types.Chunk
	switch r := root.(type) {
	case *types.ArrayRoot:
		chunks = sliceArray(r, n)
	case *types.ObjectRoot:
		chunks = sliceObject(r, n)
	case *types.ScalarRoot:
		chunks = replicateScalar(r, n)
	default:
		return nil, fmt.Errorf("unsupported root value %T", root)
	}

	chunks = normalize(chunks, n, root)

	for i, c := range chunks {
		payload, err := c.MarshalPayload()
		if err != nil {
			return nil, fmt.Errorf("fingerprinting chunk %d: %w", i+1, err)
		}
		c.Stamp(i+1, n, fingerprint(payload))
	}
	return chunks, nil
}

// naturalSliceSize is the pre-normalization cut granularity. The max(1, ...)
// floor means inputs smaller than n produce one slice per element.
func naturalSliceSize(totalItems, n int) int {
	size := totalItems / n
	if size < 1 {
		size = 1
	}
	return size
}

func sliceArray(r *types.ArrayRoot, n int) []types.Chunk {
	size := naturalSliceSize(len(r.Items), n)
	var chunks []types.Chunk
	for start := 0; start < len(r.Items); start += size {
		end := start + size
		if end > len(r.Items) {
			end = len(r.Items)
		}
		indices := make([]int, end-start)
		for i := range indices {
			indices[i] = start + i
		}
		chunks = append(chunks, &types.ArraySlice{
			Items:   r.Items[start:end],
			Indices: indices,
		})
	}
	return chunks
}

func sliceObject(r *types.ObjectRoot, n int) []types.Chunk {
	size := naturalSliceSize(len(r.Keys), n)
	var chunks []types.Chunk
	for start := 0; start < len(r.Keys); start += size {
		end := start + size
		if end > len(r.Keys) {
			end = len(r.Keys)
		}
		keys := r.Keys[start:end]
		values := make(map[string]any, len(keys))
		for _, k := range keys {
			values[k] = r.Values[k]
		}
		chunks = append(chunks, &types.ObjectSlice{
			Keys:   keys,
			Values: values,
		})
	}
	return chunks
}

// replicateScalar wraps the scalar n times with distinct replica indices;
// a primitive offers nothing to slice.
func replicateScalar(r *types.ScalarRoot, n int) []types.Chunk {
	chunks := make([]types.Chunk, n)
	for i := range chunks {
		chunks[i] = &types.ScalarReplica{Value: r.Value, Replica: i + 1}
	}
	return chunks
}

// normalize forces the chunk list to exactly n descriptors. Each round
// builds a fresh list rather than mutating in place. Padding and merging
// are mutually exclusive: one run only ever does one of them.
func normalize(chunks []types.Chunk, n int, root types.Root) []types.Chunk {
	// Empty collections produce zero natural slices; seed one degenerate
	// empty slice for the padding loop to clone. The seed itself is not
	// flagged as a duplicate, only the clones padded from it are, so a run
	// over an empty collection yields one plain chunk and n-1 duplicates.
	if len(chunks) == 0 {
		chunks = []types.Chunk{emptySlice(root)}
	}

	for len(chunks) < n {
		dup := chunks[smallestIndex(chunks)].Clone()
		dup.MarkDuplicate(len(chunks))
		next := make([]types.Chunk, 0, len(chunks)+1)
		next = append(next, chunks...)
		chunks = append(next, dup)
	}

	for len(chunks) > n {
		// Two smallest merge into one; the merged descriptor leads the next
		// round's list, followed by the remaining slices in ascending size
		// order. Stable sort keeps equal-size ties deterministic.
		bySize := make([]types.Chunk, len(chunks))
		copy(bySize, chunks)
		sort.SliceStable(bySize, func(i, j int) bool {
			return bySize[i].Size() < bySize[j].Size()
		})
		merged := &types.Merged{Parts: []types.Chunk{bySize[0], bySize[1]}}
		next := make([]types.Chunk, 0, len(chunks)-1)
		next = append(next, merged)
		chunks = append(next, bySize[2:]...)
	}

	return chunks
}

// emptySlice returns a degenerate empty-payload descriptor matching the
// root's shape.
func emptySlice(root types.Root) types.Chunk {
	if _, ok := root.(*types.ObjectRoot); ok {
		return &types.ObjectSlice{Keys: []string{}, Values: map[string]any{}}
	}
	return &types.ArraySlice{Items: []any{}, Indices: []int{}}
}

// smallestIndex returns the index of the smallest chunk, first-encountered
// winning ties.
func smallestIndex(chunks []types.Chunk) int {
	best := 0
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Size() < chunks[best].Size() {
			best = i
		}
	}
	return best
}

// fingerprint digests the canonical payload down to 8 hex characters. It
// identifies chunk content for traceability; it does not enforce
// uniqueness, and duplicate chunks share a fingerprint by construction.
func fingerprint(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:4])
}
