package eval

import (
	"math"

	"github.com/marmos91/edge-agent/pkg/signal"
)

// epsilon is the absolute tolerance used for EQ/NEQ numeric comparisons;
// signals are noisy, so bit-exact float equality is not useful.
const epsilon = 1e-3

// defaultMaxDepth bounds recursion depth absent an explicit Evaluator
// configuration.
const defaultMaxDepth = 64

// Evaluator walks an expression AST against a SignalSource, optional
// FetchSink, CustomFunctionHost, and DTCSource.
type Evaluator struct {
	Signals SignalSource
	Fetches FetchSink
	Customs CustomFunctionHost
	DTCs    DTCSource

	MaxDepth int
}

// New constructs an Evaluator. Signals must be non-nil; the remaining
// fields may be left nil, in which case FETCH_REQUEST/CUSTOM/
// ACTIVE_DTC_QUERY nodes evaluate to an error rather than panicking.
func New(signals SignalSource) *Evaluator {
	return &Evaluator{Signals: signals, MaxDepth: defaultMaxDepth}
}

// Eval evaluates node against now (the monotonic time used for fetch
// throttling and custom-function timestamps).
func (e *Evaluator) Eval(node *Node, nowMs uint64) (ErrorKind, signal.InspectionValue) {
	maxDepth := e.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return e.eval(node, nowMs, maxDepth)
}

func (e *Evaluator) eval(node *Node, nowMs uint64, depth int) (ErrorKind, signal.InspectionValue) {
	if depth <= 0 {
		return ErrStackOverflow, signal.Undefined
	}
	depth--

	switch node.Kind {
	case KindBoolean:
		return Success, signal.BoolValue(node.BoolValue)
	case KindFloat:
		return Success, signal.NumberValue(node.FloatValue)
	case KindString:
		return Success, signal.StringValue(node.StringValue)

	case KindSignal:
		v, ok := e.Signals.SignalValue(node.SignalID)
		if !ok {
			return ErrSignalNotFound, signal.Undefined
		}
		return Success, v

	case KindWindow:
		v, ok := e.Signals.WindowValue(node.SignalID, node.WindowFn)
		if !ok {
			return Success, signal.Undefined
		}
		return Success, v

	case KindIsNew:
		return Success, signal.BoolValue(e.Signals.IsNew(node.SignalID))

	case KindNot:
		errKind, v := e.eval(node.Children[0], nowMs, depth)
		if errKind != Success {
			return errKind, signal.Undefined
		}
		b, ok := asBool(v)
		if !ok {
			return ErrTypeMismatch, signal.Undefined
		}
		return Success, signal.BoolValue(!b)

	case KindAnd:
		return e.evalShortCircuit(node, nowMs, depth, false)
	case KindOr:
		return e.evalShortCircuit(node, nowMs, depth, true)

	case KindEq, KindNeq, KindLt, KindLe, KindGt, KindGe:
		return e.evalComparison(node, nowMs, depth)

	case KindAdd, KindSub, KindMul, KindDiv, KindMod, KindBitAnd, KindBitOr:
		return e.evalArithmetic(node, nowMs, depth)

	case KindIf:
		errKind, cond := e.eval(node.Children[0], nowMs, depth)
		if errKind != Success {
			return errKind, signal.Undefined
		}
		b, ok := asBool(cond)
		if !ok {
			return ErrTypeMismatch, signal.Undefined
		}
		if b {
			return e.eval(node.Children[1], nowMs, depth)
		}
		return e.eval(node.Children[2], nowMs, depth)

	case KindCustom:
		return e.evalCustom(node, nowMs, depth)

	case KindActiveDTCQuery:
		if e.DTCs == nil {
			return ErrNotImplemented, signal.Undefined
		}
		snap := e.DTCs.ActiveDTCs()
		return Success, signal.BoolValue(snap != nil && len(snap.Codes) > 0)

	case KindFetchRequest:
		if e.Fetches == nil {
			return ErrNotImplemented, signal.Undefined
		}
		e.Fetches.RequestFetch(node.FetchID, nowMs)
		return Success, signal.BoolValue(true)

	default:
		return ErrNotImplemented, signal.Undefined
	}
}

func (e *Evaluator) evalShortCircuit(node *Node, nowMs uint64, depth int, isOr bool) (ErrorKind, signal.InspectionValue) {
	errKind, left := e.eval(node.Children[0], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}
	lb, ok := asBool(left)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}
	if lb == isOr {
		return Success, signal.BoolValue(lb)
	}

	errKind, right := e.eval(node.Children[1], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}
	rb, ok := asBool(right)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}
	return Success, signal.BoolValue(rb)
}

func (e *Evaluator) evalComparison(node *Node, nowMs uint64, depth int) (ErrorKind, signal.InspectionValue) {
	errKind, left := e.eval(node.Children[0], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}
	errKind, right := e.eval(node.Children[1], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}

	if left.Kind == signal.KindString || right.Kind == signal.KindString {
		if left.Kind != signal.KindString || right.Kind != signal.KindString {
			return ErrTypeMismatch, signal.Undefined
		}
		switch node.Kind {
		case KindEq:
			return Success, signal.BoolValue(left.Str == right.Str)
		case KindNeq:
			return Success, signal.BoolValue(left.Str != right.Str)
		default:
			return ErrTypeMismatch, signal.Undefined
		}
	}

	lf, ok := asNumber(left)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}
	rf, ok := asNumber(right)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}

	switch node.Kind {
	case KindEq:
		return Success, signal.BoolValue(math.Abs(lf-rf) <= epsilon)
	case KindNeq:
		return Success, signal.BoolValue(math.Abs(lf-rf) > epsilon)
	case KindLt:
		return Success, signal.BoolValue(lf < rf)
	case KindLe:
		return Success, signal.BoolValue(lf <= rf)
	case KindGt:
		return Success, signal.BoolValue(lf > rf)
	case KindGe:
		return Success, signal.BoolValue(lf >= rf)
	default:
		return ErrNotImplemented, signal.Undefined
	}
}

func (e *Evaluator) evalArithmetic(node *Node, nowMs uint64, depth int) (ErrorKind, signal.InspectionValue) {
	errKind, left := e.eval(node.Children[0], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}
	errKind, right := e.eval(node.Children[1], nowMs, depth)
	if errKind != Success {
		return errKind, signal.Undefined
	}

	lf, ok := asNumber(left)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}
	rf, ok := asNumber(right)
	if !ok {
		return ErrTypeMismatch, signal.Undefined
	}

	switch node.Kind {
	case KindAdd:
		return Success, signal.NumberValue(lf + rf)
	case KindSub:
		return Success, signal.NumberValue(lf - rf)
	case KindMul:
		return Success, signal.NumberValue(lf * rf)
	case KindDiv:
		if rf == 0 {
			return ErrOverflow, signal.Undefined
		}
		return Success, signal.NumberValue(lf / rf)
	case KindMod:
		if rf == 0 {
			return ErrOverflow, signal.Undefined
		}
		return Success, signal.NumberValue(math.Mod(lf, rf))
	case KindBitAnd:
		return Success, signal.NumberValue(float64(int64(lf) & int64(rf)))
	case KindBitOr:
		return Success, signal.NumberValue(float64(int64(lf) | int64(rf)))
	default:
		return ErrNotImplemented, signal.Undefined
	}
}

func (e *Evaluator) evalCustom(node *Node, nowMs uint64, depth int) (ErrorKind, signal.InspectionValue) {
	if e.Customs == nil {
		return ErrNotImplemented, signal.Undefined
	}
	fn, ok := e.Customs.Lookup(node.CustomName)
	if !ok {
		return ErrNotImplemented, signal.Undefined
	}

	args := make([]signal.InspectionValue, 0, len(node.Children))
	for _, child := range node.Children {
		errKind, v := e.eval(child, nowMs, depth)
		if errKind != Success {
			return errKind, signal.Undefined
		}
		args = append(args, v)
	}

	return fn.Invoke(node.InvocationID, args)
}

func asBool(v signal.InspectionValue) (bool, bool) {
	if v.Kind != signal.KindBool {
		return false, false
	}
	return v.Bool, true
}

func asNumber(v signal.InspectionValue) (float64, bool) {
	switch v.Kind {
	case signal.KindNumber:
		return v.Number, true
	case signal.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
