package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvictionUnderLimitIsNoop(t *testing.T) {
	st := newStore()
	now := time.Now()
	st.insert(storedSession("a", "u1", now))
	st.insert(storedSession("b", "u1", now))

	evicted := evictionPolicy{maxPerUser: 3}.makeRoom(st, "u1")
	require.Empty(t, evicted)
	require.Equal(t, 2, st.len())
}

func TestEvictionRemovesOldestFirst(t *testing.T) {
	st := newStore()
	now := time.Now()
	st.insert(storedSession("a", "u1", now))
	st.insert(storedSession("b", "u1", now.Add(time.Second)))
	st.insert(storedSession("c", "u1", now.Add(2*time.Second)))
	st.insert(storedSession("other", "u2", now.Add(-time.Hour)))

	evicted := evictionPolicy{maxPerUser: 3}.makeRoom(st, "u1")
	require.Len(t, evicted, 1)
	require.Equal(t, "a", evicted[0].ID)
	require.Equal(t, []string{"b", "c"}, st.idsForUser("u1"))

	_, ok := st.byID("other")
	require.True(t, ok, "other users are never evicted")
	requireConsistent(t, st)
}

func TestEvictionOrdersByCreatedAtNotInsertion(t *testing.T) {
	st := newStore()
	now := time.Now()
	st.insert(storedSession("late", "u1", now.Add(time.Minute)))
	st.insert(storedSession("early", "u1", now))

	evicted := evictionPolicy{maxPerUser: 2}.makeRoom(st, "u1")
	require.Len(t, evicted, 1)
	require.Equal(t, "early", evicted[0].ID)
}

func TestEvictionTieBreaksOnInsertionOrder(t *testing.T) {
	st := newStore()
	now := time.Now()
	for _, id := range []string{"first", "second", "third"} {
		st.insert(storedSession(id, "u1", now))
	}

	evicted := evictionPolicy{maxPerUser: 2}.makeRoom(st, "u1")
	require.Len(t, evicted, 2)
	require.Equal(t, "first", evicted[0].ID)
	require.Equal(t, "second", evicted[1].ID)
	require.Equal(t, []string{"third"}, st.idsForUser("u1"))
}

func TestEvictionWithLimitOne(t *testing.T) {
	st := newStore()
	st.insert(storedSession("only", "u1", time.Now()))

	evicted := evictionPolicy{maxPerUser: 1}.makeRoom(st, "u1")
	require.Len(t, evicted, 1)
	require.Zero(t, st.len())
}
