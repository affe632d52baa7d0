package clinic

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, nil)
}

func testAccount() Account {
	return Account{
		ClinicID:       "clinic1",
		Name:           "Shady Grove Dental",
		Username:       "shadygrove",
		Password:       "letmein",
		Email:          "front-desk@shadygrove.example",
		WhatsAppNumber: "+15550100",
	}
}

func TestCreateAndLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAccount()))

	byID, err := store.GetByID(ctx, "clinic1")
	require.NoError(t, err)
	assert.Equal(t, "Shady Grove Dental", byID.Name)

	byUsername, err := store.GetByUsername(ctx, "shadygrove")
	require.NoError(t, err)
	assert.Equal(t, "clinic1", byUsername.ClinicID)

	byChannel, err := store.GetByChannel(ctx, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, "clinic1", byChannel.ClinicID)
}

func TestGetByUsernameIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAccount()))

	acct, err := store.GetByUsername(ctx, "ShadyGrove")
	require.NoError(t, err)
	assert.Equal(t, "clinic1", acct.ClinicID)
}

func TestCreateRejectsDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAccount()))

	dup := testAccount()
	assert.ErrorIs(t, store.Create(ctx, dup), ErrDuplicateAccount)

	// Same username under a new id is also rejected, and the half-written
	// account document is rolled back.
	dup.ClinicID = "clinic2"
	assert.ErrorIs(t, store.Create(ctx, dup), ErrDuplicateAccount)
	_, err := store.GetByID(ctx, "clinic2")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateRequiresCredentials(t *testing.T) {
	store := newTestStore(t)

	err := store.Create(context.Background(), Account{ClinicID: "clinic1"})
	require.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAccount()))

	acct, err := store.Authenticate(ctx, "shadygrove", "letmein")
	require.NoError(t, err)
	assert.Equal(t, "clinic1", acct.ClinicID)

	_, err = store.Authenticate(ctx, "shadygrove", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Authenticate(ctx, "nobody", "letmein")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDisplayName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAccount()))

	name, err := store.DisplayName(ctx, "clinic1")
	require.NoError(t, err)
	assert.Equal(t, "Shady Grove Dental", name)

	_, err = store.DisplayName(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestEnsureSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureSeed(ctx, testAccount()))
	require.NoError(t, store.EnsureSeed(ctx, testAccount()))

	acct, err := store.GetByID(ctx, "clinic1")
	require.NoError(t, err)
	assert.Equal(t, "shadygrove", acct.Username)
}

func TestEnsureSeedSkipsWhenUnconfigured(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.EnsureSeed(context.Background(), Account{}))
}
