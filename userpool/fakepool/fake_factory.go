package fakepool

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/datastore"
	"github.com/jrsteele09/go-cognito-emulator/userpool"
)

var _ userpool.Factory = (*FakeFactory)(nil)

// FakeFactory builds real pools (normally over in-memory stores) while
// recording every Create call, so tests can assert whether and how pools
// were constructed.
type FakeFactory struct {
	lock     sync.Mutex
	calls    []userpool.Config
	FailWith error // when set, Create fails without constructing a pool
}

func NewFakeFactory() *FakeFactory {
	return &FakeFactory{}
}

func (f *FakeFactory) Create(config userpool.Config, clients datastore.Store, storeFactory datastore.Factory, logger zerolog.Logger) (*userpool.Pool, error) {
	f.lock.Lock()
	f.calls = append(f.calls, config)
	err := f.FailWith
	f.lock.Unlock()

	if err != nil {
		return nil, err
	}
	return userpool.NewPool(config, clients, storeFactory, logger)
}

// CreateCalls returns the configs passed to Create, in order.
func (f *FakeFactory) CreateCalls() []userpool.Config {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]userpool.Config(nil), f.calls...)
}
