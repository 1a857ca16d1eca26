// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChunkKind identifies the shape of a chunk descriptor's payload.
type ChunkKind string

const (
	KindArraySlice    ChunkKind = "array_slice"
	KindObjectSlice   ChunkKind = "object_slice"
	KindScalarReplica ChunkKind = "scalar_replica"
	KindMerged        ChunkKind = "merged"
)

// ChunkMeta holds the identity fields stamped on every descriptor at the end
// of normalization. The analyzer calls Stamp exactly once per descriptor;
// descriptors are read-only afterwards and safe to render concurrently.
type ChunkMeta struct {
	// SequenceID is the descriptor's 1-based position in the final output,
	// in 1..TotalChunks. Output file names derive from it.
	SequenceID int

	// TotalChunks is the requested partition count N, repeated on every
	// descriptor for self-description.
	TotalChunks int

	// Fingerprint is a short deterministic digest of the canonical payload,
	// used for traceability. Collisions across chunks are acceptable.
	Fingerprint string

	// IsDuplicate marks a descriptor created by the padding step; DuplicateOf
	// records the descriptor count at the moment the clone was made.
	IsDuplicate bool
	DuplicateOf int
}

// Meta returns the stamped identity fields.
func (m *ChunkMeta) Meta() ChunkMeta { return *m }

// Stamp records the descriptor's final identity.
func (m *ChunkMeta) Stamp(sequenceID, totalChunks int, fingerprint string) {
	m.SequenceID = sequenceID
	m.TotalChunks = totalChunks
	m.Fingerprint = fingerprint
}

// MarkDuplicate flags a padded clone with the running descriptor count at the
// time it was created.
func (m *ChunkMeta) MarkDuplicate(duplicateOf int) {
	m.IsDuplicate = true
	m.DuplicateOf = duplicateOf
}

// Chunk is one unit of the N-way partition of the input JSON content. The
// concrete types are ArraySlice, ObjectSlice, ScalarReplica, and Merged;
// consumers dispatch with an exhaustive type switch on the pointer types.
type Chunk interface {
	Kind() ChunkKind

	// Size is the count of logical items the descriptor represents; for a
	// merged descriptor it is the sum over the parts.
	Size() int

	// Meta returns the stamped identity fields.
	Meta() ChunkMeta

	// MarshalPayload returns the canonical compact-JSON form of the payload.
	// Object slices marshal keys in their recorded order, so the canonical
	// form, and the fingerprint computed over it, is deterministic.
	MarshalPayload() ([]byte, error)

	// Clone returns a shallow copy sharing the payload, with fresh metadata.
	// The padding step uses it to create duplicate descriptors.
	Clone() Chunk

	// Stamp and MarkDuplicate are promoted from ChunkMeta. Only the analyzer
	// calls them, during normalization; descriptors are read-only afterwards.
	Stamp(sequenceID, totalChunks int, fingerprint string)
	MarkDuplicate(duplicateOf int)
}

// ArraySlice is a contiguous run of elements cut from an array root. Indices
// holds the elements' original zero-based positions.
type ArraySlice struct {
	ChunkMeta
	Items   []any
	Indices []int
}

func (s *ArraySlice) Kind() ChunkKind { return KindArraySlice }
func (s *ArraySlice) Size() int       { return len(s.Items) }

func (s *ArraySlice) MarshalPayload() ([]byte, error) {
	if len(s.Items) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Items)
}

func (s *ArraySlice) Clone() Chunk {
	return &ArraySlice{Items: s.Items, Indices: s.Indices}
}

// ObjectSlice is a contiguous run of entries cut from an object root. Keys
// preserves the entries' original order; Values maps each key to its value.
type ObjectSlice struct {
	ChunkMeta
	Keys   []string
	Values map[string]any
}

func (s *ObjectSlice) Kind() ChunkKind { return KindObjectSlice }
func (s *ObjectSlice) Size() int       { return len(s.Keys) }

// MarshalPayload writes the sub-mapping as a JSON object in recorded key
// order. encoding/json would sort map keys, which loses document order.
func (s *ObjectSlice) MarshalPayload() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshaling key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(s.Values[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling value for %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ObjectSlice) Clone() Chunk {
	return &ObjectSlice{Keys: s.Keys, Values: s.Values}
}

// ScalarReplica wraps a scalar root. A scalar cannot be sliced, so the
// analyzer emits N replicas with distinct 1-based replica indices.
type ScalarReplica struct {
	ChunkMeta
	Value   any
	Replica int
}

func (s *ScalarReplica) Kind() ChunkKind { return KindScalarReplica }
func (s *ScalarReplica) Size() int       { return 1 }

func (s *ScalarReplica) MarshalPayload() ([]byte, error) {
	return json.Marshal(s.Value)
}

func (s *ScalarReplica) Clone() Chunk {
	return &ScalarReplica{Value: s.Value, Replica: s.Replica}
}

// Merged combines two or more prior descriptors into one. Merging may nest:
// a part can itself be a Merged from an earlier normalization round.
type Merged struct {
	ChunkMeta
	Parts []Chunk
}

func (m *Merged) Kind() ChunkKind { return KindMerged }

func (m *Merged) Size() int {
	total := 0
	for _, p := range m.Parts {
		total += p.Size()
	}
	return total
}

// PartKinds returns the original kinds of the merged parts, in order.
func (m *Merged) PartKinds() []ChunkKind {
	kinds := make([]ChunkKind, len(m.Parts))
	for i, p := range m.Parts {
		kinds[i] = p.Kind()
	}
	return kinds
}

// MarshalPayload writes the part payloads as a JSON array, in order.
func (m *Merged) MarshalPayload() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range m.Parts {
		if i > 0 {
			buf.WriteByte(',')
		}
		pb, err := p.MarshalPayload()
		if err != nil {
			return nil, fmt.Errorf("marshaling part %d: %w", i, err)
		}
		buf.Write(pb)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (m *Merged) Clone() Chunk {
	return &Merged{Parts: m.Parts}
}
