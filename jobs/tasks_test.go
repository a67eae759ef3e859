package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerReconcileTask(t *testing.T) {
	task := NewLedgerReconcileTask()
	assert.Equal(t, TaskLedgerReconcile, task.Type())
	assert.Empty(t, task.Payload())
}

func TestNewGLIntegrityTaskCarriesPeriod(t *testing.T) {
	task, err := NewGLIntegrityTask(GLIntegrityPayload{PeriodID: 42})
	require.NoError(t, err)
	assert.Equal(t, TaskGLIntegrity, task.Type())

	var payload GLIntegrityPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.PeriodID)
}
