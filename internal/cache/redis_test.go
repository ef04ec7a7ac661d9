package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

func TestNewWithoutAddrDisablesCache(t *testing.T) {
	client, err := New(context.Background(), Options{})
	require.NoError(t, err)

	assert.Nil(t, client)
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, coreerrors.ErrCacheDisabled)

	assert.NoError(t, client.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, client.Close())
}
