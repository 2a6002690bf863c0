package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	st "server-tags/internal/storagetypes"
)

const guild = "100000000000000001"

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTagLifecycle(t *testing.T) {
	s := newStorage(t)

	tag, err := s.AddTag(guild, "  Hello ", "Hi {user}!", "42")
	require.NoError(t, err)
	assert.Equal(t, "hello", tag.Name)
	assert.Equal(t, "42", tag.AuthorID)

	_, err = s.AddTag(guild, "hello", "again", "42")
	assert.True(t, errors.Is(err, ErrTagExists))

	got, err := s.GetTag(guild, "HELLO")
	require.NoError(t, err)
	assert.Equal(t, "Hi {user}!", got.Content)

	edited, err := s.EditTag(guild, "hello", "Bye {user}!")
	require.NoError(t, err)
	assert.Equal(t, "Bye {user}!", edited.Content)
	assert.Equal(t, tag.CreatedAt, edited.CreatedAt)

	uses, err := s.IncrementTagUses(guild, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(1), uses)

	require.NoError(t, s.RemoveTag(guild, "hello"))
	_, err = s.GetTag(guild, "hello")
	assert.True(t, errors.Is(err, ErrTagNotFound))
	assert.True(t, errors.Is(s.RemoveTag(guild, "hello"), ErrTagNotFound))
	_, err = s.EditTag(guild, "hello", "x")
	assert.True(t, errors.Is(err, ErrTagNotFound))
}

func TestTagValidation(t *testing.T) {
	s := newStorage(t)

	for _, name := range []string{"", "two words", "a-name-that-is-definitely-longer-than-allowed"} {
		_, err := s.AddTag(guild, name, "content", "1")
		assert.True(t, errors.Is(err, ErrInvalidTagName), name)
	}
	_, err := s.AddTag(guild, "empty", "   ", "1")
	assert.Error(t, err)
}

func TestListTagsSorted(t *testing.T) {
	s := newStorage(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.AddTag(guild, name, "x", "1")
		require.NoError(t, err)
	}
	_, err := s.AddTag("other-guild", "beta", "x", "1")
	require.NoError(t, err)

	tags, err := s.ListTags(guild)
	require.NoError(t, err)
	var names []string
	for _, tg := range tags {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestIncrementTagUsesConcurrently(t *testing.T) {
	s := newStorage(t)
	_, err := s.AddTag(guild, "count", "x", "1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrementTagUses(guild, "count")
		}()
	}
	wg.Wait()

	tag, err := s.GetTag(guild, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(25), tag.Uses)
}

func TestGreetings(t *testing.T) {
	s := newStorage(t)

	_, ok, err := s.GetGreeting(guild, st.GreetingWelcome)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetGreeting(guild, st.GreetingWelcome, "200", "Welcome {member(mention)}!"))
	require.NoError(t, s.SetGreeting(guild, st.GreetingFarewell, "200", "Bye {member}"))
	assert.Error(t, s.SetGreeting(guild, "hello", "200", "x"))

	g, ok, err := s.GetGreeting(guild, st.GreetingWelcome)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "200", g.ChannelID)
	assert.Equal(t, "Welcome {member(mention)}!", g.Script)

	require.NoError(t, s.ClearGreeting(guild, st.GreetingWelcome))
	all, err := s.GetGreetings(guild)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, st.GreetingFarewell)
}

func TestPrefix(t *testing.T) {
	s := newStorage(t)

	p, err := s.GetPrefix(guild, "!")
	require.NoError(t, err)
	assert.Equal(t, "!", p)

	require.NoError(t, s.SetPrefix(guild, "?"))
	p, err = s.GetPrefix(guild, "!")
	require.NoError(t, err)
	assert.Equal(t, "?", p)

	assert.Error(t, s.SetPrefix(guild, ""))
	assert.Error(t, s.SetPrefix(guild, "a b"))
	assert.Error(t, s.SetPrefix(guild, "toolong"))
}

func TestCommandHistoryIsCapped(t *testing.T) {
	s := newStorage(t)
	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandHistory(guild, st.CommandHistory{
			Command:  fmt.Sprintf("cmd%d", i),
			Datetime: time.Now(),
		}))
	}

	history, err := s.GetCommandHistory(guild)
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, "cmd5", history[0].Command)
	assert.Equal(t, fmt.Sprintf("cmd%d", commandHistoryLimit+4), history[len(history)-1].Command)
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path)
	require.NoError(t, err)
	_, err = s.AddTag(guild, "persist", "kept", "1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	tag, err := s.GetTag(guild, "persist")
	require.NoError(t, err)
	assert.Equal(t, "kept", tag.Content)
}

func TestGetGuildRecordIsACopy(t *testing.T) {
	s := newStorage(t)
	_, err := s.AddTag(guild, "a", "x", "1")
	require.NoError(t, err)

	r, err := s.GetGuildRecord(guild)
	require.NoError(t, err)
	require.Contains(t, r.Tags, "a")
	delete(r.Tags, "a")

	_, err = s.GetTag(guild, "a")
	assert.NoError(t, err)
}

func TestFailedUpdateLeavesRecordUnchanged(t *testing.T) {
	errAbort := errors.New("abort")
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Storage)
	}{
		{"new guild", func(*testing.T, *Storage) {}},
		{"existing guild", func(t *testing.T, s *Storage) {
			_, err := s.AddTag(guild, "kept", "x", "1")
			require.NoError(t, err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t)
			tt.setup(t, s)

			err := s.update(guild, func(r *st.Record) error {
				r.Tags["partial"] = st.Tag{Name: "partial", Content: "half"}
				r.Prefix = "?"
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			r, err := s.GetGuildRecord(guild)
			require.NoError(t, err)
			assert.NotContains(t, r.Tags, "partial")
			assert.Empty(t, r.Prefix)
		})
	}
}
