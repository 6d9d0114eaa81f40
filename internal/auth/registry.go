// Package auth manages the account registry: signup, email-lookup login, the
// signed-in user record, and the demo seed account. There is no real
// credential check; accounts are local records, kept behind an explicit
// collaborator so the rest of the core never touches persistence keys
// directly.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"crocsthepen/internal/logging"
	"crocsthepen/internal/store"
	"crocsthepen/internal/types"
)

var (
	// ErrNotSignedIn means no current user record exists.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrUnknownAccount means login found no account for the email.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrEmailTaken means signup collided with an existing account.
	ErrEmailTaken = errors.New("an account with this email already exists")
)

// Demo seed account for trying the studio without registering.
const (
	DemoEmail    = "test@example.com"
	demoUsername = "Tester"
	demoCredits  = 20
)

// Registry is the authentication collaborator over the persistence store.
type Registry struct {
	kv store.KV
	mu sync.Mutex
}

// NewRegistry creates a registry over the given store.
func NewRegistry(kv store.KV) *Registry {
	return &Registry{kv: kv}
}

func (r *Registry) loadUsers() []types.User {
	data, err := r.kv.Get(store.RegisteredUsersKey())
	if err != nil {
		return nil
	}
	var users []types.User
	if err := json.Unmarshal(data, &users); err != nil {
		logging.Get(logging.CategoryStore).Warn("Corrupt user registry, starting empty: %v", err)
		return nil
	}
	return users
}

func (r *Registry) saveUsers(users []types.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return r.kv.Set(store.RegisteredUsersKey(), data)
}

// Signup registers a new account with the starting balance and signs it in.
func (r *Registry) Signup(username, email, avatar string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}

	if avatar == "" {
		avatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=" + username
	}
	user := types.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		Avatar:         avatar,
		Credits:        types.StartingCredits,
		TasksCompleted: []string{},
	}

	if err := r.saveUsers(append(users, user)); err != nil {
		return nil, err
	}
	if err := r.setCurrent(&user); err != nil {
		return nil, err
	}
	logging.Session("Signed up user %s (%s)", user.ID, email)
	return &user, nil
}

// Login signs in an existing account by email lookup.
func (r *Registry) Login(email string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.loadUsers() {
		if u.Email == email {
			user := u
			if err := r.setCurrent(&user); err != nil {
				return nil, err
			}
			logging.Session("Signed in user %s (%s)", user.ID, email)
			return &user, nil
		}
	}
	return nil, ErrUnknownAccount
}

// Logout clears the active user reference. The account itself is kept.
func (r *Registry) Logout() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kv.Delete(store.CurrentUserKey())
}

// CurrentUser returns the signed-in user, if any. Corrupt stored state is
// treated as signed out.
func (r *Registry) CurrentUser() (*types.User, error) {
	data, err := r.kv.Get(store.CurrentUserKey())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotSignedIn
		}
		return nil, err
	}
	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		logging.Get(logging.CategoryStore).Warn("Corrupt current user record: %v", err)
		return nil, ErrNotSignedIn
	}
	return &user, nil
}

// SaveUser persists an updated user record: the signed-in reference plus the
// registry entry, in one step. Implements the ledger's saver contract.
func (r *Registry) SaveUser(u *types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = *u
			if err := r.saveUsers(users); err != nil {
				return err
			}
			break
		}
	}
	return r.setCurrent(u)
}

// SeedDemo ensures the demo account exists. Safe to call on every startup.
func (r *Registry) SeedDemo() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.Email == DemoEmail {
			return nil
		}
	}
	demo := types.User{
		ID:             uuid.NewString(),
		Username:       demoUsername,
		Email:          DemoEmail,
		Avatar:         "https://api.dicebear.com/7.x/avataaars/svg?seed=" + demoUsername,
		Credits:        demoCredits,
		TasksCompleted: []string{},
	}
	return r.saveUsers(append(users, demo))
}

func (r *Registry) setCurrent(u *types.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return r.kv.Set(store.CurrentUserKey(), data)
}
