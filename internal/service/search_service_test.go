package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "u1", "John Smith", "")
	env.newUser(t, "u2", "Johnny Bravo", "")
	env.newUser(t, "u3", "Alice", "")
	me := env.newUser(t, "me", "John Me", "")

	got, err := env.svc.Search.Search(ctx, "JOHN", me.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, u := range got {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"u1", "u2"}, ids)

	byDisplay, err := env.svc.Search.Search(ctx, me.UserID, "")
	require.NoError(t, err)
	require.Len(t, byDisplay, 1)
	assert.Equal(t, "me", byDisplay[0].ID)

	none, err := env.svc.Search.Search(ctx, "zzz", me.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.svc.Search.Search(ctx, "  ", me.ID)
	assert.ErrorIs(t, err, ErrValidation)
}
