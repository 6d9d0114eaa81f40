package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"crocsthepen/internal/store"
	"crocsthepen/internal/types"
)

func TestSignupLoginLogout(t *testing.T) {
	r := NewRegistry(store.NewMemory())

	user, err := r.Signup("Ana", "ana@example.com", "")
	require.NoError(t, err)
	require.Equal(t, types.StartingCredits, user.Credits)
	require.NotEmpty(t, user.ID)
	require.Contains(t, user.Avatar, "seed=Ana")

	// Signed in right away.
	current, err := r.CurrentUser()
	require.NoError(t, err)
	require.Equal(t, user.ID, current.ID)

	// Duplicate email rejected.
	_, err = r.Signup("Other", "ana@example.com", "")
	require.ErrorIs(t, err, ErrEmailTaken)

	require.NoError(t, r.Logout())
	_, err = r.CurrentUser()
	require.ErrorIs(t, err, ErrNotSignedIn)

	// Logout keeps the account: login works again.
	again, err := r.Login("ana@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
}

func TestLogin_UnknownAccount(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	_, err := r.Login("ghost@example.com")
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestSeedDemo_Idempotent(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	require.NoError(t, r.SeedDemo())
	require.NoError(t, r.SeedDemo())

	demo, err := r.Login(DemoEmail)
	require.NoError(t, err)
	require.Equal(t, "Tester", demo.Username)
	require.Equal(t, 20, demo.Credits)

	// Only one demo entry exists.
	require.Len(t, r.loadUsers(), 1)
}

func TestSaveUser_SyncsRegistryAndCurrent(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	user, err := r.Signup("Ana", "ana@example.com", "")
	require.NoError(t, err)

	user.Credits = 99
	require.NoError(t, r.SaveUser(user))

	current, err := r.CurrentUser()
	require.NoError(t, err)
	require.Equal(t, 99, current.Credits)

	// A later login sees the persisted balance, not the signup balance.
	require.NoError(t, r.Logout())
	again, err := r.Login("ana@example.com")
	require.NoError(t, err)
	require.Equal(t, 99, again.Credits)
}

func TestCurrentUser_CorruptRecordIsSignedOut(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.CurrentUserKey(), []byte("{broken")))

	r := NewRegistry(kv)
	_, err := r.CurrentUser()
	require.ErrorIs(t, err, ErrNotSignedIn)
}
