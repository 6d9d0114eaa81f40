package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"crocsthepen/internal/store"
	"crocsthepen/internal/types"
)

func newTestStore(t *testing.T) (*Store, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	s := NewStore(kv)
	// Deterministic, strictly increasing clock.
	var tick int64
	s.now = func() int64 { tick++; return tick }
	return s, kv
}

func TestCreateAndList_MostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)
	b, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)
	_, err = s.Create("u1", types.ModeImage)
	require.NoError(t, err)

	general, err := s.List("u1", types.ModeGeneral)
	require.NoError(t, err)
	require.Len(t, general, 2)
	require.Equal(t, b.ID, general[0].ID, "newest first")
	require.Equal(t, a.ID, general[1].ID)

	// Touching the older session moves it to the front.
	require.NoError(t, s.AppendMessage("u1", a.ID, types.Message{ID: "m1", Role: types.RoleUser, Content: "hi"}))
	general, err = s.List("u1", types.ModeGeneral)
	require.NoError(t, err)
	require.Equal(t, a.ID, general[0].ID)
}

func TestAppendMessage_UpsertsTrailingByID(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)

	user := types.Message{ID: "m1", Role: types.RoleUser, Content: "hello"}
	require.NoError(t, s.AppendMessage("u1", sess.ID, user))

	// Progressive updates to the same in-flight assistant message.
	assistant := types.Message{ID: "m2", Role: types.RoleAssistant, Content: "Hel", Generating: true}
	require.NoError(t, s.AppendMessage("u1", sess.ID, assistant))
	assistant.Content = "Hello world"
	assistant.Generating = false
	require.NoError(t, s.AppendMessage("u1", sess.ID, assistant))

	got, err := s.Get("u1", sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2, "update must not duplicate the trailing message")

	want := []types.Message{user, assistant}
	if diff := cmp.Diff(want, got.Messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestList_EmptyModeReturnsAllModes(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)
	b, err := s.Create("u1", types.ModeWebsite)
	require.NoError(t, err)

	all, err := s.List("u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2, "unfiltered listing includes every mode")
	require.Equal(t, b.ID, all[0].ID, "newest first")
	require.Equal(t, a.ID, all[1].ID)

	// A concrete mode still filters.
	websites, err := s.List("u1", types.ModeWebsite)
	require.NoError(t, err)
	require.Len(t, websites, 1)
	require.Equal(t, b.ID, websites[0].ID)
}

func TestAppendMessage_UnknownSession(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.AppendMessage("u1", "nope", types.Message{ID: "m1"})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete_ActiveSelectsRemainingOrCreates(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)
	b, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)

	// Deleting the active (newest) session: an existing one takes over.
	require.NoError(t, s.Delete("u1", b.ID))
	active, err := s.Active("u1", types.ModeGeneral)
	require.NoError(t, err)
	require.Equal(t, a.ID, active.ID)

	// Deleting the last session: a fresh empty one is created.
	require.NoError(t, s.Delete("u1", a.ID))
	active, err = s.Active("u1", types.ModeGeneral)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, active.ID)
	require.Empty(t, active.Messages)
	require.Equal(t, types.DefaultSessionTitle, active.Title)

	// Never a dangling reference.
	_, err = s.Get("u1", active.ID)
	require.NoError(t, err)
}

func TestDelete_MissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Delete("u1", "missing"))
}

func TestLoad_CorruptDataIsEmptyState(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(store.SessionsKey("u1"), []byte("{not json")))

	sessions, err := s.List("u1", types.ModeGeneral)
	require.NoError(t, err)
	require.Empty(t, sessions)

	// The store recovers: creating works and replaces the corrupt blob.
	created, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)
	got, err := s.Get("u1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestSessionsScopedPerUser(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Create("u1", types.ModeGeneral)
	require.NoError(t, err)

	other, err := s.List("u2", types.ModeGeneral)
	require.NoError(t, err)
	require.Empty(t, other)
}
