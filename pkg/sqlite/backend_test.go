package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/statsdb/pkg/types"
)

func TestNew(t *testing.T) {
	store, err := New(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.False(t, store.IsReady())

	require.NoError(t, store.Initialize())
	defer store.Close()
	assert.True(t, store.IsReady())

	id, err := store.InsertQueryEvent(types.QueryEvent{
		SessionID: "s", AgentType: "claude-code", Source: types.SourceUser,
		StartTime: 1, Duration: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	events, err := store.QueryEvents(types.RangeAll, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(types.Config{VacuumThresholdBytes: 1<<40 + 1})
	assert.ErrorIs(t, err, types.ErrThresholdTooLarge)
}
