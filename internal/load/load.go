// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package load reads the input JSON document and decodes it into the closed
// root variant. A failed parse gets one best-effort textual repair pass
// before loading fails.
// See docs/ARCHITECTURE § Loading.
package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

// repairer applies the best-effort fixes for JSON written with Python
// literals: single quotes and the True/False/None spellings. The
// substitution is blind and also rewrites those tokens inside legitimate
// string content, so a repaired document is flagged with a warning rather
// than treated as a faithful parse.
var repairer = strings.NewReplacer(
	"'", `"`,
	"True", "true",
	"False", "false",
	"None", "null",
)

// Load reads the JSON document at path and returns the decoded root plus any
// warnings gathered along the way. Missing files, empty files, and documents
// that fail to parse even after the repair pass are errors; any well-formed
// document decodes without error regardless of shape.
func Load(path string) (types.Root, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input file %s: %w", path, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil, fmt.Errorf("input file %s is empty", path)
	}

	root, parseErr := Decode(content)
	if parseErr == nil {
		return root, nil, nil
	}

	root, repairErr := Decode(repairer.Replace(content))
	if repairErr != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w (repair also failed: %v)", path, parseErr, repairErr)
	}

	warnings := []string{
		fmt.Sprintf("repaired malformed JSON in %s via textual substitution; string content containing quote or Python-literal tokens may have been altered", path),
	}
	return root, warnings, nil
}

// Decode parses a complete JSON document into the root variant. Object roots
// are decoded through the token stream so the document's top-level key order
// is preserved; encoding/json's map decoding would lose it. Numbers decode
// as json.Number to keep their source form.
func Decode(content string) (types.Root, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	var root types.Root
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			root, err = decodeArray(dec)
		case '{':
			root, err = decodeObject(dec)
		default:
			return nil, fmt.Errorf("decoding JSON: unexpected delimiter %q", t)
		}
		if err != nil {
			return nil, err
		}
	default:
		// Bare scalar root: string, number, boolean, or null.
		root = &types.ScalarRoot{Value: tok}
	}

	// Anything after the root value makes the document invalid.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding JSON: trailing content after root value")
	}
	return root, nil
}

func decodeArray(dec *json.Decoder) (*types.ArrayRoot, error) {
	items := []any{}
	for dec.More() {
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding array element %d: %w", len(items), err)
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decoding array: %w", err)
	}
	return &types.ArrayRoot{Items: items}, nil
}

func decodeObject(dec *json.Decoder) (*types.ObjectRoot, error) {
	keys := []string{}
	values := make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decoding object: non-string key %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding value for key %q: %w", key, err)
		}
		// Duplicate keys keep the last value but only one key-list entry,
		// matching map semantics.
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	return &types.ObjectRoot{Keys: keys, Values: values}, nil
}
