package engine

import (
	"testing"

	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/dtc"
	"github.com/marmos91/edge-agent/pkg/eval"
	"github.com/marmos91/edge-agent/pkg/queue"
	"github.com/marmos91/edge-agent/pkg/rdbm"
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	mgr := rdbm.New(rdbm.Config{MaxTotalBytes: 1 << 20})
	return New(Config{
		MaxSampleMemory:     1 << 20,
		ConditionWidth:      64,
		FetchConditionWidth: 16,
		RDBM:                mgr,
		OutQueue:            queue.New[*Payload]("out", 8, nil),
		FetchQueue:          queue.New[uint32]("fetch", 8, nil),
	})
}

// thresholdMatrix builds a one-condition matrix: signal 1 (F64) > 10,
// rising-edge triggered, collecting signal 1 itself.
func thresholdMatrix(risingEdgeOnly bool) *act.InspectionMatrix {
	ref := act.BufferRef{SignalID: 1, MinIntervalMs: 0, SignalType: signal.TypeF64, Capacity: 4}
	cond := &act.Condition{
		SchemeID:              1,
		Expression:            eval.Gt(eval.Signal(1), eval.Float(10)),
		SampleBuffersBySignal: map[signal.ID]act.BufferRef{1: ref},
		WindowsBySignal:       map[signal.ID][]act.WindowRef{},
		CollectedSignalIDs:    []signal.ID{1},
		SampleBufferSize:      map[signal.ID]int{1: 4},
		RisingEdgeOnly:        risingEdgeOnly,
	}
	return &act.InspectionMatrix{Conditions: []*act.Condition{cond}}
}

func TestEngine_OnChangeInspectionMatrix_InstallsAndPreEvaluatesStatic(t *testing.T) {
	e := newTestEngine(t)

	ref := act.BufferRef{SignalID: 1, MinIntervalMs: 0, SignalType: signal.TypeF64, Capacity: 4}
	staticCond := &act.Condition{
		SchemeID:              2,
		Expression:            eval.Boolean(true),
		SampleBuffersBySignal: map[signal.ID]act.BufferRef{1: ref},
		WindowsBySignal:       map[signal.ID][]act.WindowRef{},
		IsStatic:              true,
	}
	matrix := &act.InspectionMatrix{Conditions: []*act.Condition{staticCond}}

	err := e.OnChangeInspectionMatrix(matrix, 1000)
	require.NoError(t, err)

	assert.True(t, e.table.CurrentlyTrue.Test(0))
}

func TestEngine_AddNewSignal_UnknownSignalErrors(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(true), 0))

	err := e.AddNewSignal(signal.ID(99), signal.DefaultFetchRequestID, 100, 100, 1.0)
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestEngine_RisingEdge_TriggersOnceUntilFalseAgain(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(true), 0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 100, 100, 20.0))
	triggered := e.EvaluateConditions(100)
	assert.True(t, triggered)
	assert.True(t, e.table.TriggeredWaitingPublished.Test(0))

	e.table.TriggeredWaitingPublished.Clear(0)

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 200, 200, 21.0))
	triggered = e.EvaluateConditions(200)
	assert.False(t, triggered, "level-stays-true re-evaluation must not re-trigger a rising-edge condition")
	assert.False(t, e.table.TriggeredWaitingPublished.Test(0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 300, 300, 5.0))
	e.EvaluateConditions(300)
	assert.False(t, e.table.CurrentlyTrue.Test(0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 400, 400, 30.0))
	triggered = e.EvaluateConditions(400)
	assert.True(t, triggered, "a fresh false->true transition must trigger again")
}

func TestEngine_LevelMode_TriggersEveryTruePass(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(false), 0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 100, 100, 20.0))
	assert.True(t, e.EvaluateConditions(100))
	e.table.TriggeredWaitingPublished.Clear(0)

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 200, 200, 21.0))
	assert.True(t, e.EvaluateConditions(200), "level mode re-triggers on every true evaluation")
}

func TestEngine_CollectNextDataToSend_AssemblesTriggeredPayload(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(true), 0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 100, 100, 20.0))
	require.True(t, e.EvaluateConditions(100))

	payload, _ := e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	assert.Equal(t, uint32(1), payload.SchemeID)
	require.Len(t, payload.Signals, 1)
	assert.Equal(t, signal.ID(1), payload.Signals[0].SignalID)
	assert.InDelta(t, 20.0, payload.Signals[0].Value.Number, 1e-9)

	assert.False(t, e.table.TriggeredWaitingPublished.Test(0))

	payload, _ = e.CollectNextDataToSend(100)
	assert.Nil(t, payload, "nothing else is waiting to be published")
}

func TestEngine_CollectNextDataToSend_I4GatesAlreadyPublishedSamples(t *testing.T) {
	e := newTestEngine(t)
	cond := thresholdMatrix(true).Conditions[0]
	cond.SendOncePerCondition = true
	matrix := &act.InspectionMatrix{Conditions: []*act.Condition{cond}}
	require.NoError(t, e.OnChangeInspectionMatrix(matrix, 0))

	require.NoError(t, e.AddNewSignal(1, signal.DefaultFetchRequestID, 100, 100, 20.0))
	require.True(t, e.EvaluateConditions(100))
	payload, _ := e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	require.Len(t, payload.Signals, 1)

	// Same sample, re-triggered with no newer data: I4 (system_time_ms >
	// last_published_system_ms) must exclude it from a second payload.
	cond.SetPreviousTrue(false)
	e.table.TriggeredWaitingPublished.Set(0)
	payload, _ = e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	assert.Empty(t, payload.Signals)
}

func TestEngine_RequestFetch_ThrottlesWithinMinInterval(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(true), 0))

	assert.True(t, e.RequestFetch(7, 1000))
	assert.False(t, e.RequestFetch(7, 1500), "a second fetch within MinFetchTriggerMs must be throttled")
	assert.True(t, e.RequestFetch(7, 1000+MinFetchTriggerMs))
}

func TestEngine_SetActiveDTCs_AttachesOncePerGeneration(t *testing.T) {
	e := newTestEngine(t)
	ref := act.BufferRef{SignalID: 1, MinIntervalMs: 0, SignalType: signal.TypeF64, Capacity: 4}
	cond := &act.Condition{
		SchemeID:              3,
		Expression:            eval.Boolean(true),
		SampleBuffersBySignal: map[signal.ID]act.BufferRef{1: ref},
		WindowsBySignal:       map[signal.ID][]act.WindowRef{},
		RisingEdgeOnly:        false,
		IncludeActiveDTCs:     true,
	}
	matrix := &act.InspectionMatrix{Conditions: []*act.Condition{cond}}
	require.NoError(t, e.OnChangeInspectionMatrix(matrix, 0))

	e.SetActiveDTCs(&dtc.Snapshot{ReceivedSystemMs: 100, Codes: []dtc.Code{{ECUID: "ECU1", DTCCode: "P0001"}}})

	e.table.TriggeredWaitingPublished.Set(0)
	payload, _ := e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	require.NotNil(t, payload.ActiveDTCs)
	assert.Len(t, payload.ActiveDTCs.Codes, 1)

	// No new snapshot published: a second collection for the same
	// condition must not re-attach it.
	e.table.TriggeredWaitingPublished.Set(0)
	payload, _ = e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	assert.Nil(t, payload.ActiveDTCs)

	e.SetActiveDTCs(&dtc.Snapshot{ReceivedSystemMs: 200, Codes: []dtc.Code{{ECUID: "ECU1", DTCCode: "P0002"}}})
	e.table.TriggeredWaitingPublished.Set(0)
	payload, _ = e.CollectNextDataToSend(100)
	require.NotNil(t, payload)
	require.NotNil(t, payload.ActiveDTCs)
	assert.Equal(t, "P0002", payload.ActiveDTCs.Codes[0].DTCCode)
}

func TestEngine_OnChangeInspectionMatrix_AllocationFailureLeavesPriorMatrixIntact(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnChangeInspectionMatrix(thresholdMatrix(true), 0))
	priorTable := e.table

	ref := act.BufferRef{SignalID: 2, MinIntervalMs: 0, SignalType: signal.TypeF64, Capacity: 1 << 30}
	tooBig := &act.Condition{
		SchemeID:              9,
		Expression:            eval.Boolean(true),
		SampleBuffersBySignal: map[signal.ID]act.BufferRef{2: ref},
		WindowsBySignal:       map[signal.ID][]act.WindowRef{},
	}
	matrix := &act.InspectionMatrix{Conditions: []*act.Condition{tooBig}}

	err := e.OnChangeInspectionMatrix(matrix, 0)
	assert.Error(t, err)
	assert.Same(t, priorTable, e.table, "a failed swap must leave the previously installed matrix in place")
}
