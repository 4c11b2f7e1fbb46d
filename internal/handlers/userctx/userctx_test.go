package userctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/todoserver/internal/models"
)

func TestUserCtx(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok, "empty context has no principal")

	ctx := New(context.Background(), models.Principal{Subject: "alice", Token: "token"})

	p, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", p.Subject)
	require.Equal(t, "token", p.Token)
}
