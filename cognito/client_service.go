// Package cognito is the tenant registry: the single entry point request
// handlers use to reach a user pool, either directly by pool id or through
// the client identifier carried in a bearer token.
package cognito

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/datastore"
	emuerrors "github.com/jrsteele09/go-cognito-emulator/internal/errors"
	"github.com/jrsteele09/go-cognito-emulator/internal/metrics"
	"github.com/jrsteele09/go-cognito-emulator/userpool"
)

const clientsStoreName = "clients"

// ClientService owns the top-level clients store mapping client identifiers
// to pool ids, and a cache of instantiated pools. Exactly one pool instance
// exists per pool id for the lifetime of the process.
type ClientService struct {
	defaultConfig userpool.Config
	clients       datastore.Store
	storeFactory  datastore.Factory
	poolFactory   userpool.Factory
	logger        zerolog.Logger

	lock  sync.Mutex
	pools map[string]*userpool.Pool
}

// New provisions (or opens) the clients store with the default document
// {Clients: {}}. The clients map always exists, even with zero entries, so
// lookups never need to distinguish a missing store from a missing client.
func New(defaultConfig userpool.Config, storeFactory datastore.Factory, poolFactory userpool.Factory, logger zerolog.Logger) (*ClientService, error) {
	clients, err := storeFactory.Create(clientsStoreName, map[string]any{"Clients": map[string]any{}})
	if err != nil {
		return nil, errors.Wrap(err, "[cognito.New] create clients store")
	}

	return &ClientService{
		defaultConfig: defaultConfig,
		clients:       clients,
		storeFactory:  storeFactory,
		poolFactory:   poolFactory,
		logger:        logger,
		pools:         make(map[string]*userpool.Pool),
	}, nil
}

// GetUserPool returns the pool for id, constructing and caching it on first
// access. A directly supplied pool id is assumed to be developer-controlled,
// so unknown ids are provisioned rather than rejected.
func (s *ClientService) GetUserPool(id string) (*userpool.Pool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if pool, ok := s.pools[id]; ok {
		metrics.RecordPoolCacheLookup(true)
		return pool, nil
	}
	metrics.RecordPoolCacheLookup(false)
	return s.lenientCreateUserPool(id)
}

// lenientCreateUserPool is the one code path that auto-provisions a pool on
// first reference. Kept isolated so the policy can be tightened in a later
// release without touching the strict client-id path. Callers must hold
// s.lock; a failed construction is not cached, so the next access retries.
func (s *ClientService) lenientCreateUserPool(id string) (*userpool.Pool, error) {
	config := userpool.Config{
		ID:                 id,
		UsernameAttributes: s.defaultConfig.UsernameAttributes,
	}

	pool, err := s.poolFactory.Create(config, s.clients, s.storeFactory, s.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "[ClientService.GetUserPool] create pool %s", id)
	}

	s.pools[id] = pool
	s.logger.Debug().Str("userPool", id).Msg("created user pool")
	return pool, nil
}

// GetUserPoolForClientID resolves the pool owning clientID via the clients
// store. A client identifier is an external secret-bearing value, so an
// unregistered one fails with ResourceNotFound and never provisions a pool.
func (s *ClientService) GetUserPoolForClientID(clientID string) (*userpool.Pool, error) {
	v, err := s.clients.Get("Clients", clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "[ClientService.GetUserPoolForClientID] client %s", clientID)
	}
	if v == nil {
		return nil, emuerrors.ResourceNotFound(clientID)
	}

	var record userpool.ClientRecord
	if err := datastore.Decode(v, &record); err != nil {
		return nil, errors.Wrapf(err, "[ClientService.GetUserPoolForClientID] decode client %s", clientID)
	}
	return s.GetUserPool(record.UserPoolID)
}

// CreateAppClient registers a new app client against the pool, provisioning
// the pool first if needed.
func (s *ClientService) CreateAppClient(poolID, clientName string) (*userpool.ClientRecord, error) {
	pool, err := s.GetUserPool(poolID)
	if err != nil {
		return nil, err
	}
	return pool.CreateAppClient(clientName)
}
