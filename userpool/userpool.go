// Package userpool materializes one tenant: an isolated directory of users
// and groups with its own configuration and document store.
package userpool

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/datastore"
	emuerrors "github.com/jrsteele09/go-cognito-emulator/internal/errors"
)

// UsernameAttribute enumerates the attributes a pool may allow as username
// aliases.
type UsernameAttribute string

const (
	UsernameAttributeEmail       UsernameAttribute = "email"
	UsernameAttributePhoneNumber UsernameAttribute = "phone_number"
)

// Config is the immutable configuration of one pool. It is persisted inside
// the pool's own store under Options.
type Config struct {
	ID                 string              `json:"Id"`
	UsernameAttributes []UsernameAttribute `json:"UsernameAttributes"`
}

// Factory builds a Pool from its configuration plus the injected storage
// dependencies, so pools remain independently testable.
type Factory interface {
	Create(config Config, clients datastore.Store, storeFactory datastore.Factory, logger zerolog.Logger) (*Pool, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(config Config, clients datastore.Store, storeFactory datastore.Factory, logger zerolog.Logger) (*Pool, error)

func (f FactoryFunc) Create(config Config, clients datastore.Store, storeFactory datastore.Factory, logger zerolog.Logger) (*Pool, error) {
	return f(config, clients, storeFactory, logger)
}

var _ Factory = FactoryFunc(NewPool)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Pool is the runtime object for one tenant. It owns a store rooted at the
// pool id and holds a reference to the top-level clients store, which it
// only writes through the explicit CreateAppClient provisioning path.
type Pool struct {
	config       Config
	store        datastore.Store
	clients      datastore.Store
	storeFactory datastore.Factory
	logger       zerolog.Logger
}

// NewPool opens (or creates) the store rooted at the pool id and returns the
// pool. The default document shape is an empty user map, an empty group map
// and the supplied configuration.
func NewPool(config Config, clients datastore.Store, storeFactory datastore.Factory, logger zerolog.Logger) (*Pool, error) {
	if config.UsernameAttributes == nil {
		config.UsernameAttributes = []UsernameAttribute{}
	}

	store, err := storeFactory.Create(config.ID, map[string]any{
		"Users":   map[string]any{},
		"Groups":  map[string]any{},
		"Options": config,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[userpool.NewPool] create store for pool %s", config.ID)
	}

	return &Pool{
		config:       config,
		store:        store,
		clients:      clients,
		storeFactory: storeFactory,
		logger:       logger.With().Str("userPool", config.ID).Logger(),
	}, nil
}

// Config returns the pool's configuration.
func (p *Pool) Config() Config {
	return p.config
}

// GetUserByUsername looks up a user. Resolution order: the literal username
// key, then the sub attribute, then each alias attribute the pool's
// UsernameAttributes policy lists, in the listed order. Absent users resolve
// to (nil, nil).
func (p *Pool) GetUserByUsername(username string) (*User, error) {
	v, err := p.store.Get("Users", username)
	if err != nil {
		return nil, errors.Wrap(err, "[Pool.GetUserByUsername] store.Get")
	}
	if v != nil {
		return decodeUser(v)
	}

	users, err := p.usersByUsername()
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if sub, _ := user.Attribute("sub"); sub == username {
			return user, nil
		}
	}
	for _, alias := range p.config.UsernameAttributes {
		for _, user := range users {
			if value, ok := user.Attribute(string(alias)); ok && value == username {
				return user, nil
			}
		}
	}
	return nil, nil
}

// SaveUser writes the user record, stamping the modification date. Saving an
// unchanged record is idempotent apart from the timestamp.
func (p *Pool) SaveUser(user *User) error {
	now := NowTimeFunc().Unix()
	if user.UserCreateDate == 0 {
		user.UserCreateDate = now
	}
	user.UserLastModifiedDate = now
	if _, ok := user.Attribute("sub"); !ok {
		user.SetAttribute("sub", uuid.New().String())
	}

	if err := p.store.Set([]string{"Users", user.Username}, user); err != nil {
		return errors.Wrapf(err, "[Pool.SaveUser] user %s", user.Username)
	}
	p.logger.Debug().Str("username", user.Username).Msg("saved user")
	return nil
}

// UpdateUserAttributes merges the supplied attributes into the user's
// current attribute set and writes the record back.
func (p *Pool) UpdateUserAttributes(username string, attributes []Attribute) error {
	user, err := p.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return emuerrors.UserNotFound(username)
	}

	for _, attr := range attributes {
		user.SetAttribute(attr.Name, attr.Value)
	}
	return p.SaveUser(user)
}

// SetMFAOptions replaces the user's MFA options.
func (p *Pool) SetMFAOptions(username string, options []MFAOption) error {
	user, err := p.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return emuerrors.UserNotFound(username)
	}

	user.MFAOptions = options
	return p.SaveUser(user)
}

// ListUsers returns all users in the pool ordered by username.
func (p *Pool) ListUsers() ([]*User, error) {
	users, err := p.usersByUsername()
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// SaveGroup writes a group record, stamping creation and modification dates.
func (p *Pool) SaveGroup(group *Group) error {
	now := NowTimeFunc().Unix()
	if group.CreationDate == 0 {
		group.CreationDate = now
	}
	group.LastModifiedDate = now
	if err := p.store.Set([]string{"Groups", group.GroupName}, group); err != nil {
		return errors.Wrapf(err, "[Pool.SaveGroup] group %s", group.GroupName)
	}
	return nil
}

// GetGroupByName returns the named group, or (nil, nil) when absent.
func (p *Pool) GetGroupByName(name string) (*Group, error) {
	v, err := p.store.Get("Groups", name)
	if err != nil {
		return nil, errors.Wrap(err, "[Pool.GetGroupByName] store.Get")
	}
	if v == nil {
		return nil, nil
	}
	var group Group
	if err := datastore.Decode(v, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns all groups in the pool ordered by name.
func (p *Pool) ListGroups() ([]*Group, error) {
	v, err := p.store.Get("Groups")
	if err != nil {
		return nil, errors.Wrap(err, "[Pool.ListGroups] store.Get")
	}
	groups := make([]*Group, 0)
	m, _ := v.(map[string]any)
	for _, raw := range m {
		var group Group
		if err := datastore.Decode(raw, &group); err != nil {
			return nil, err
		}
		groups = append(groups, &group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupName < groups[j].GroupName })
	return groups, nil
}

// CreateAppClient registers a new app client for this pool in the top-level
// clients store. This is the only path through which a pool touches the
// clients mapping.
func (p *Pool) CreateAppClient(name string) (*ClientRecord, error) {
	record := &ClientRecord{
		ClientID:     uuid.New().String(),
		ClientName:   name,
		UserPoolID:   p.config.ID,
		CreationDate: NowTimeFunc().Unix(),
	}
	if err := p.clients.Set([]string{"Clients", record.ClientID}, record); err != nil {
		return nil, errors.Wrapf(err, "[Pool.CreateAppClient] client %s", name)
	}
	p.logger.Info().Str("clientId", record.ClientID).Str("clientName", name).Msg("registered app client")
	return record, nil
}

func (p *Pool) usersByUsername() ([]*User, error) {
	v, err := p.store.Get("Users")
	if err != nil {
		return nil, errors.Wrap(err, "[Pool.usersByUsername] store.Get")
	}
	users := make([]*User, 0)
	m, _ := v.(map[string]any)
	for _, raw := range m {
		user, err := decodeUser(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(v any) (*User, error) {
	var user User
	if err := datastore.Decode(v, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
