package teleprompter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/teleprompter/trip"
)

// TestRunReport_Creation tests a fresh report before any action
func TestRunReport_Creation(t *testing.T) {
	id := ulid.Make()
	cfg := NewRunConfig("hi", 2, 10, 20)

	report := newRunReport(id, cfg)

	assert.Equal(t, id, report.RunID)
	assert.Equal(t, cfg, report.Config)
	assert.False(t, report.StartedAt.IsZero())
	assert.NotNil(t, report.Actions)
	assert.Empty(t, report.Actions)
	require.NotNil(t, report.Trips)
	assert.False(t, report.Trips.HasTrips())
	assert.False(t, report.Completed)
	assert.False(t, report.Cancelled)
}

// TestRunReport_RecordAction tests that actions carry the current loop
func TestRunReport_RecordAction(t *testing.T) {
	report := newRunReport(ulid.Make(), RunConfig{Loops: 2})

	report.loop = 1
	report.recordAction("press_down", RuneKey('a'))
	report.recordAction("press_up", RuneKey('a'))
	report.loop = 2
	report.recordAction("splice", 3)
	report.recordAction("press_down", Key(KeyEnter))
	report.recordAction("skip", "\t")

	require.Len(t, report.Actions, 5)
	assert.Equal(t, 1, report.Actions[0].Loop)
	assert.Equal(t, 2, report.Actions[2].Loop)
	assert.Equal(t, 3, report.Actions[2].Details)

	assert.Equal(t, 2, report.CountActions("press_down"))
	assert.Equal(t, 1, report.CountActions("splice"))
	assert.Equal(t, 0, report.CountActions("unknown"))
	assert.Equal(t, []NamedKey{RuneKey('a'), Key(KeyEnter)}, report.Presses())
}

func TestRunReport_Finish(t *testing.T) {
	t.Run("clean run", func(t *testing.T) {
		report := newRunReport(ulid.Make(), RunConfig{Loops: 1})
		time.Sleep(time.Millisecond)
		report.finish()

		assert.Greater(t, report.Duration, time.Duration(0))
		assert.Equal(t, "[run] no issues", report.Summary)
		assert.Nil(t, report.Issues)
		assert.Empty(t, report.Error)
	})

	t.Run("trips and error", func(t *testing.T) {
		report := newRunReport(ulid.Make(), RunConfig{Loops: 1})
		report.Trips.Record(trip.NewStumble("mapping", "No key for 'é'", nil))
		report.Trips.Record(trip.NewFall("config", "bad", nil))
		report.Err = errors.New("loops must be at least 1")
		report.finish()

		assert.Equal(t, "[run] 1 trips, 1 stumbles", report.Summary)
		assert.Equal(t, map[string]int{"mapping": 1, "config": 1}, report.Issues)
		assert.Equal(t, "loops must be at least 1", report.Error)
	})
}

// TestRunReport_JSON tests the wire form used by the HTTP API
func TestRunReport_JSON(t *testing.T) {
	report := newRunReport(ulid.Make(), NewRunConfig("a{enter}", 1, 0, 0))
	report.loop = 1
	report.recordAction("press_down", RuneKey('a'))
	report.Completed = true
	report.LoopsCompleted = 1
	report.Err = errors.New("hidden")
	report.finish()

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, report.RunID.String(), decoded["run_id"])
	assert.Equal(t, true, decoded["completed"])
	assert.Equal(t, float64(1), decoded["loops_completed"])
	assert.Equal(t, "hidden", decoded["error"])
	assert.NotContains(t, decoded, "Trips")
	assert.NotContains(t, decoded, "Err")

	actions, ok := decoded["actions"].([]interface{})
	require.True(t, ok)
	require.Len(t, actions, 1)
	assert.Equal(t, "press_down", actions[0].(map[string]interface{})["type"])
}

func TestErrRunInProgress(t *testing.T) {
	wrapped := errors.Join(errors.New("rejected"), ErrRunInProgress)
	assert.ErrorIs(t, wrapped, ErrRunInProgress)
}
