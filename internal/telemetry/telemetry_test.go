package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var evt Event
		require.NoError(t, json.Unmarshal([]byte(line), &evt), "line: %s", line)
		out = append(out, evt)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestEmit_WritesJSONLines(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".casm", "enum_runs.jsonl")

	em, err := NewEmitter(path)
	require.NoError(t, err)

	events := []Event{
		{Kind: KindEnumBegin, EnumID: "main"},
		{Kind: KindEnumStep, EnumID: "main", Step: StepPtr(0), Data: map[string]int{"new": 3}},
		{Kind: KindEnumCommit, EnumID: "main"},
		{Kind: KindEnumFinish, EnumID: "main", DryRun: true},
	}
	for _, evt := range events {
		require.NoError(t, em.Emit(evt))
	}
	require.NoError(t, em.Close())

	got := readEvents(t, path)
	require.Len(t, got, len(events))
	for i, evt := range got {
		assert.Equal(t, events[i].Kind, evt.Kind)
		assert.Equal(t, "main", evt.EnumID)
		assert.False(t, evt.Timestamp.IsZero(), "event %d not stamped", i)
	}
	require.NotNil(t, got[1].Step)
	assert.Equal(t, 0, *got[1].Step)
	assert.True(t, got[3].DryRun)
}

func TestEmit_KeepsExplicitTimestamp(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	em, err := NewEmitter(path)
	require.NoError(t, err)

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, em.Emit(Event{Timestamp: ts, Kind: KindEnumBegin}))
	require.NoError(t, em.Close())

	got := readEvents(t, path)
	require.Len(t, got, 1)
	assert.True(t, ts.Equal(got[0].Timestamp))
}

func TestEmit_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "concurrent.jsonl")
	em, err := NewEmitter(path)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(idx int) {
			defer wg.Done()
			assert.NoError(t, em.Emit(Event{Kind: KindEnumStep, Step: StepPtr(idx)}))
		}(i)
	}
	wg.Wait()
	require.NoError(t, em.Close())

	assert.Len(t, readEvents(t, path), n)
}

func TestNilEmitter_NoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter
	assert.NoError(t, em.Emit(Event{Kind: KindEnumBegin}))
	assert.Empty(t, em.Session())
	assert.NoError(t, em.Close())
}

func TestEmit_StampsSession(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.jsonl")

	em1, err := NewEmitter(path)
	require.NoError(t, err)
	em2, err := NewEmitter(path)
	require.NoError(t, err)
	_, err = uuid.Parse(em1.Session())
	require.NoError(t, err)
	assert.NotEqual(t, em1.Session(), em2.Session())

	require.NoError(t, em1.Emit(Event{Kind: KindEnumBegin, EnumID: "a"}))
	require.NoError(t, em2.Emit(Event{Kind: KindEnumBegin, EnumID: "b"}))
	require.NoError(t, em1.Emit(Event{Kind: KindEnumFinish, EnumID: "a"}))
	require.NoError(t, em1.Emit(Event{Kind: KindEnumMerge, Session: "explicit"}))
	require.NoError(t, em1.Close())
	require.NoError(t, em2.Close())

	got := readEvents(t, path)
	require.Len(t, got, 4)
	assert.Equal(t, em1.Session(), got[0].Session)
	assert.Equal(t, em2.Session(), got[1].Session)
	assert.Equal(t, em1.Session(), got[2].Session)
	assert.Equal(t, "explicit", got[3].Session)
}

func TestEmit_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "append.jsonl")

	em1, err := NewEmitter(path)
	require.NoError(t, err)
	require.NoError(t, em1.Emit(Event{Kind: KindEnumBegin, EnumID: "a"}))
	require.NoError(t, em1.Close())

	em2, err := NewEmitter(path)
	require.NoError(t, err)
	require.NoError(t, em2.Emit(Event{Kind: KindEnumFinish, EnumID: "a"}))
	require.NoError(t, em2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestEventKinds_AreDistinct(t *testing.T) {
	t.Parallel()
	kinds := []string{
		KindEnumBegin,
		KindEnumStep,
		KindEnumCommit,
		KindEnumFinish,
		KindEnumMerge,
		KindBsetUpdate,
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		assert.NotEmpty(t, k)
		assert.False(t, seen[k], "duplicate kind %q", k)
		seen[k] = true
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(Event{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:      KindEnumBegin,
	})
	require.NoError(t, err)
	s := string(data)
	for _, key := range []string{`"session"`, `"enum"`, `"step"`, `"dry_run"`, `"data"`} {
		assert.NotContains(t, s, key)
	}
}
