package userpool_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-cognito-emulator/datastore"
	"github.com/jrsteele09/go-cognito-emulator/datastore/fakestore"
	emuerrors "github.com/jrsteele09/go-cognito-emulator/internal/errors"
	"github.com/jrsteele09/go-cognito-emulator/userpool"
)

func newPool(t *testing.T, config userpool.Config) (*userpool.Pool, *fakestore.FakeFactory) {
	t.Helper()

	factory := fakestore.NewFakeFactory()
	clients, err := factory.Create("clients", map[string]any{"Clients": map[string]any{}})
	require.NoError(t, err)

	pool, err := userpool.NewPool(config, clients, factory, zerolog.Nop())
	require.NoError(t, err)
	return pool, factory
}

func saveUser(t *testing.T, pool *userpool.Pool, username string, attributes ...userpool.Attribute) *userpool.User {
	t.Helper()

	user := &userpool.User{
		Username:   username,
		Attributes: attributes,
		Enabled:    true,
		UserStatus: userpool.UserStatusConfirmed,
	}
	require.NoError(t, pool.SaveUser(user))
	return user
}

func TestNewPool_SeedsDefaultDocument(t *testing.T) {
	_, factory := newPool(t, userpool.Config{ID: "userPoolId"})

	store := factory.Store("userPoolId")
	require.NotNil(t, store)

	root, err := store.GetRoot()
	require.NoError(t, err)
	require.Equal(t, map[string]any{}, root["Users"])
	require.Equal(t, map[string]any{}, root["Groups"])
	require.Equal(t, map[string]any{"Id": "userPoolId", "UsernameAttributes": []any{}}, root["Options"])
}

func TestGetUserByUsername_LiteralUsername(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saveUser(t, pool, "alice")

	user, err := pool.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
}

func TestGetUserByUsername_AbsentUser(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})

	user, err := pool.GetUserByUsername("nobody")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestGetUserByUsername_BySubAttribute(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saved := saveUser(t, pool, "alice")

	user, err := pool.GetUserByUsername(saved.Sub())
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
}

func TestGetUserByUsername_EmailAliasWhenPolicyAllows(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{
		ID:                 "userPoolId",
		UsernameAttributes: []userpool.UsernameAttribute{userpool.UsernameAttributeEmail},
	})
	saveUser(t, pool, "alice", userpool.Attribute{Name: "email", Value: "alice@example.com"})

	user, err := pool.GetUserByUsername("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
}

func TestGetUserByUsername_AliasIgnoredWithoutPolicy(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saveUser(t, pool, "alice", userpool.Attribute{Name: "email", Value: "alice@example.com"})

	user, err := pool.GetUserByUsername("alice@example.com")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestGetUserByUsername_PhoneNumberAlias(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{
		ID:                 "userPoolId",
		UsernameAttributes: []userpool.UsernameAttribute{userpool.UsernameAttributePhoneNumber},
	})
	saveUser(t, pool, "alice", userpool.Attribute{Name: "phone_number", Value: "+15555550100"})

	user, err := pool.GetUserByUsername("+15555550100")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice", user.Username)
}

func TestSaveUser_AssignsSubAndDates(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	user := saveUser(t, pool, "alice")

	require.NotEmpty(t, user.Sub())
	require.NotZero(t, user.UserCreateDate)
	require.NotZero(t, user.UserLastModifiedDate)
}

func TestSaveUser_RepeatedSaveKeepsIdentity(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	user := saveUser(t, pool, "alice")
	sub := user.Sub()
	created := user.UserCreateDate

	require.NoError(t, pool.SaveUser(user))

	reloaded, err := pool.GetUserByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, sub, reloaded.Sub())
	require.Equal(t, created, reloaded.UserCreateDate)
}

func TestUpdateUserAttributes_MergesAttributes(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saveUser(t, pool, "alice", userpool.Attribute{Name: "email", Value: "old@example.com"})

	require.NoError(t, pool.UpdateUserAttributes("alice", []userpool.Attribute{
		{Name: "email", Value: "new@example.com"},
		{Name: "given_name", Value: "Alice"},
	}))

	user, err := pool.GetUserByUsername("alice")
	require.NoError(t, err)

	email, _ := user.Attribute("email")
	require.Equal(t, "new@example.com", email)
	givenName, _ := user.Attribute("given_name")
	require.Equal(t, "Alice", givenName)
}

func TestUpdateUserAttributes_UnknownUser(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})

	err := pool.UpdateUserAttributes("nobody", []userpool.Attribute{{Name: "email", Value: "x@example.com"}})
	require.ErrorIs(t, err, emuerrors.ErrUserNotFound)
}

func TestSetMFAOptions_ReplacesOptions(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saveUser(t, pool, "alice")

	options := []userpool.MFAOption{{DeliveryMedium: "SMS", AttributeName: "phone_number"}}
	require.NoError(t, pool.SetMFAOptions("alice", options))

	user, err := pool.GetUserByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, options, user.MFAOptions)
}

func TestListUsers_OrderedByUsername(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})
	saveUser(t, pool, "carol")
	saveUser(t, pool, "alice")
	saveUser(t, pool, "bob")

	users, err := pool.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)
	require.Equal(t, "carol", users[2].Username)
}

func TestListUsers_ConcurrentWithSaveUser(t *testing.T) {
	factory, err := datastore.NewFileFactory(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	clients, err := factory.Create("clients", map[string]any{"Clients": map[string]any{}})
	require.NoError(t, err)
	pool, err := userpool.NewPool(userpool.Config{ID: "userPoolId"}, clients, factory, zerolog.Nop())
	require.NoError(t, err)

	const writers = 8
	errs := make(chan error, writers*2)
	var wg sync.WaitGroup
	wg.Add(writers * 2)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			errs <- pool.SaveUser(&userpool.User{
				Username:   fmt.Sprintf("user-%d", n),
				Enabled:    true,
				UserStatus: userpool.UserStatusConfirmed,
			})
		}(i)
		go func() {
			defer wg.Done()
			_, err := pool.ListUsers()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	users, err := pool.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, writers)
}

func TestGroups_SaveAndList(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})

	require.NoError(t, pool.SaveGroup(&userpool.Group{GroupName: "admins", Description: "administrators"}))
	require.NoError(t, pool.SaveGroup(&userpool.Group{GroupName: "readers"}))

	group, err := pool.GetGroupByName("admins")
	require.NoError(t, err)
	require.NotNil(t, group)
	require.Equal(t, "administrators", group.Description)
	require.NotZero(t, group.CreationDate)

	groups, err := pool.ListGroups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "admins", groups[0].GroupName)
	require.Equal(t, "readers", groups[1].GroupName)
}

func TestGetGroupByName_Absent(t *testing.T) {
	pool, _ := newPool(t, userpool.Config{ID: "userPoolId"})

	group, err := pool.GetGroupByName("nobody")
	require.NoError(t, err)
	require.Nil(t, group)
}

func TestCreateAppClient_WritesClientRecord(t *testing.T) {
	pool, factory := newPool(t, userpool.Config{ID: "userPoolId"})

	record, err := pool.CreateAppClient("my app")
	require.NoError(t, err)
	require.NotEmpty(t, record.ClientID)
	require.Equal(t, "my app", record.ClientName)
	require.Equal(t, "userPoolId", record.UserPoolID)

	clients := factory.Store("clients")
	v, err := clients.Get("Clients", record.ClientID)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "userPoolId", v.(map[string]any)["UserPoolId"])
}

func TestMatchesPassword(t *testing.T) {
	hash, err := userpool.HashPassword("Password123")
	require.NoError(t, err)

	user := &userpool.User{Username: "alice", Password: hash}
	require.True(t, user.MatchesPassword("Password123"))
	require.False(t, user.MatchesPassword("wrong"))
}
