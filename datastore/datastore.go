// Package datastore provides the persistent hierarchical key-path store that
// underlies all durable emulator state. A store is a self-contained document
// identified by its root name; values are addressed by an ordered path of
// string segments. The package has no knowledge of users or pools.
package datastore

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Store is a durable document addressed by key paths. Get on a never-written
// path yields (nil, nil), not an error. Set creates intermediate mapping
// levels as needed and is atomic with respect to concurrent readers: values
// returned by Get and GetRoot are stable snapshots that later writes never
// mutate in place, and a failed Set leaves nothing behind.
type Store interface {
	Get(path ...string) (any, error)
	Set(path []string, value any) error
	GetRoot() (map[string]any, error)
}

// Factory opens or creates a named store, seeding the root with defaultValue
// when no prior document exists. Injected so tests and alternate backends can
// substitute in-memory implementations.
type Factory interface {
	Create(name string, defaultValue map[string]any) (Store, error)
}

// Decode re-marshals a stored value into a typed struct. Stored values are
// JSON-shaped (maps, slices, primitives), so a JSON round trip is the
// canonical conversion.
func Decode(v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "[datastore.Decode] marshal")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "[datastore.Decode] unmarshal")
	}
	return nil
}

// normalise converts a value into its JSON-shaped form so that in-memory
// reads observe the same types as reads after a reload from disk.
func normalise(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "[datastore.normalise] marshal")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(err, "[datastore.normalise] unmarshal")
	}
	return v, nil
}

// getPath walks a document segment by segment. An intermediate mapping miss
// or a non-mapping intermediate value reads as absent.
func getPath(root map[string]any, path []string) any {
	current := any(root)
	for _, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// setPath returns a new document with value written at path, creating
// intermediate maps as needed. The maps along the path are copied rather than
// mutated, so documents previously handed to readers stay stable and a write
// only becomes visible when the caller swaps the returned root in.
func setPath(root map[string]any, path []string, value any) map[string]any {
	newRoot := copyLevel(root)
	current := newRoot
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if ok {
			next = copyLevel(next)
		} else {
			next = map[string]any{}
		}
		current[segment] = next
		current = next
	}
	current[path[len(path)-1]] = value
	return newRoot
}

func copyLevel(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
