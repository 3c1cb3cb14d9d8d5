package grants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GrantExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	eventID, userID := uuid.New(), uuid.New()

	ok, err := m.HasGrant(ctx, eventID, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Grant(ctx, eventID, userID))

	ok, err = m.HasGrant(ctx, eventID, userID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.HasGrant(ctx, eventID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok, "grants are per user")

	now = now.Add(time.Hour)
	ok, err = m.HasGrant(ctx, eventID, userID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, m.expires)
}
