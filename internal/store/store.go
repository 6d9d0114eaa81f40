// Package store provides the persistence collaborator for crocsthepen.
// Core logic never talks to a concrete storage medium directly; everything
// goes through the KV interface, which hands JSON blobs back and forth.
// Local is the SQLite-backed implementation; Memory is the in-process fake
// used by tests.
package store

import "errors"

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("store: key not found")

// KV is a keyed JSON blob store. Values are opaque JSON documents; callers
// own encoding and decoding. Implementations must be safe for use from a
// single logical mutator (see the gateway's shared-resource policy) but are
// expected to tolerate concurrent readers.
type KV interface {
	// Get returns the raw JSON stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores raw JSON under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Well-known key builders. Keys are scoped per user where state is per-user.
const (
	keyCurrentUser     = "croc_user"
	keyRegisteredUsers = "croc_registered_users"
	keyAPIKey          = "croc_api_key"
	keySessionsPrefix  = "croc_sessions_"
)

// CurrentUserKey holds the signed-in user record.
func CurrentUserKey() string { return keyCurrentUser }

// RegisteredUsersKey holds the list of all known accounts.
func RegisteredUsersKey() string { return keyRegisteredUsers }

// APIKeyKey holds the user-supplied generation service credential.
func APIKeyKey() string { return keyAPIKey }

// SessionsKey holds the session collection for one user.
func SessionsKey(userID string) string { return keySessionsPrefix + userID }
