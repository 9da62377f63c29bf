package apiclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefresher(t *testing.T) {
	t.Parallel()

	t.Run("first caller leads and later callers join", func(t *testing.T) {
		t.Parallel()
		r := &refresher{}

		call, leader, rotated := r.beginRefresh(0)
		require.True(t, leader)
		require.False(t, rotated)
		require.True(t, r.inFlight())

		joined, leader, rotated := r.beginRefresh(0)
		require.False(t, leader)
		require.False(t, rotated)
		require.Same(t, call, joined)

		r.completeRefresh(call, "new", nil)
		<-joined.done
		require.Equal(t, "new", joined.token)
		require.False(t, r.inFlight())
		require.Equal(t, uint64(1), r.generation())
	})

	t.Run("stale generation reports a rotated token", func(t *testing.T) {
		t.Parallel()
		r := &refresher{}

		call, _, _ := r.beginRefresh(0)
		r.completeRefresh(call, "new", nil)

		next, leader, rotated := r.beginRefresh(0)
		require.Nil(t, next)
		require.False(t, leader)
		require.True(t, rotated)
	})

	t.Run("failure does not advance the generation", func(t *testing.T) {
		t.Parallel()
		r := &refresher{}

		call, _, _ := r.beginRefresh(0)
		r.completeRefresh(call, "", errors.New("rejected"))
		<-call.done
		require.Error(t, call.err)
		require.Zero(t, r.generation())

		_, leader, _ := r.beginRefresh(0)
		require.True(t, leader)
	})
}
