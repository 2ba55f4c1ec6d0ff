package fakestore

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-cognito-emulator/datastore"
)

var _ datastore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory datastore.Store double.
type FakeStore struct {
	lock sync.RWMutex
	root map[string]any
}

func NewFakeStore(defaultValue map[string]any) *FakeStore {
	root, err := roundTrip(defaultValue)
	if err != nil || root == nil {
		root = map[string]any{}
	}
	return &FakeStore{root: root}
}

func (s *FakeStore) Get(path ...string) (any, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	current := any(s.root)
	for _, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, nil
		}
		current, ok = m[segment]
		if !ok {
			return nil, nil
		}
	}
	return current, nil
}

// Set updates the document copy-on-write, matching the stability contract of
// the real store: values previously returned by Get or GetRoot never change.
func (s *FakeStore) Set(path []string, value any) error {
	if len(path) == 0 {
		return errors.New("[FakeStore.Set] empty path")
	}

	normalised, err := roundTripValue(value)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	newRoot := copyLevel(s.root)
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
	current[path[len(path)-1]] = normalised
	s.root = newRoot
	return nil
}

func copyLevel(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *FakeStore) GetRoot() (map[string]any, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.root, nil
}

var _ datastore.Factory = (*FakeFactory)(nil)

// FakeFactory hands out in-memory stores and remembers them by name so tests
// can inspect what a component persisted. Create is idempotent per name.
type FakeFactory struct {
	lock        sync.Mutex
	stores      map[string]*FakeStore
	createCalls []string
}

func NewFakeFactory() *FakeFactory {
	return &FakeFactory{stores: make(map[string]*FakeStore)}
}

func (f *FakeFactory) Create(name string, defaultValue map[string]any) (datastore.Store, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.createCalls = append(f.createCalls, name)
	if store, ok := f.stores[name]; ok {
		return store, nil
	}
	store := NewFakeStore(defaultValue)
	f.stores[name] = store
	return store, nil
}

// Store returns the store created under name, or nil.
func (f *FakeFactory) Store(name string) *FakeStore {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.stores[name]
}

// CreateCalls returns the store names passed to Create, in order.
func (f *FakeFactory) CreateCalls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.createCalls...)
}

func roundTrip(value map[string]any) (map[string]any, error) {
	v, err := roundTripValue(value)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

func roundTripValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
