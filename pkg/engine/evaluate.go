package engine

import (
	"strconv"
	"time"

	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/eval"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// EvaluateConditions walks every condition whose input changed on the
// latest batch of accepted samples, re-evaluates its expression, and
// updates the currently-true and triggered-waiting-published bitmaps per
// P4's rising-edge rule (level-mode conditions trigger on every true
// result, not just the false->true transition). It reports whether at
// least one condition newly triggered.
func (e *Engine) EvaluateConditions(nowMs uint64) bool {
	if e.table == nil {
		return false
	}

	triggeredAny := false
	e.table.InputChanged.EachSet(func(slot uint) {
		if int(slot) >= len(e.table.Matrix.Conditions) {
			return
		}
		cond := e.table.Matrix.Conditions[slot]

		start := time.Now()
		errKind, v := e.evalCondition(cond, nowMs)
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordEvaluation(strconv.FormatUint(uint64(cond.SchemeID), 10), time.Since(start), errKind.String())
		}

		if e.applyEvaluationResult(slot, cond, errKind, v, nowMs) {
			triggeredAny = true
		}
	})

	e.table.InputChanged.ClearAll()
	for id := range e.changedSignals {
		delete(e.changedSignals, id)
	}

	return triggeredAny
}

// applyEvaluationResult implements P4: it updates CurrentlyTrue and, on a
// trigger, TriggeredWaitingPublished plus the condition's own rising-edge
// bookkeeping. It reports whether this evaluation newly triggered the
// condition.
func (e *Engine) applyEvaluationResult(slot uint, cond *act.Condition, errKind eval.ErrorKind, v signal.InspectionValue, nowMs uint64) bool {
	if errKind != eval.Success || !v.IsTrue() {
		e.table.CurrentlyTrue.Clear(slot)
		cond.SetPreviousTrue(false)
		return false
	}

	e.table.CurrentlyTrue.Set(slot)

	triggered := !cond.RisingEdgeOnly || !cond.PreviousTrue()
	cond.SetPreviousTrue(true)

	if triggered {
		cond.LastTriggerMonotonicMs = nowMs
		cond.EventID = act.NextEventID(nowMs)
		e.table.TriggeredWaitingPublished.Set(slot)
	}

	return triggered
}
