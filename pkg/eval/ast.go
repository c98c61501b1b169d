// Package eval implements the expression evaluator (EE, spec component C4):
// a small tagged-AST interpreter over signal values, fixed-time windows,
// custom functions, active DTCs, and fetch requests.
package eval

import "github.com/marmos91/edge-agent/pkg/window"

// Kind tags the variant of a Node.
type Kind int

const (
	KindBoolean Kind = iota
	KindFloat
	KindString
	KindSignal
	KindWindow
	KindIsNew
	KindNot
	KindAnd
	KindOr
	KindEq
	KindNeq
	KindLt
	KindLe
	KindGt
	KindGe
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMod
	KindBitAnd
	KindBitOr
	KindIf
	KindCustom
	KindActiveDTCQuery
	KindFetchRequest
)

// Node is one node of an expression's AST. Only the fields relevant to Kind
// are meaningful; this mirrors a tagged union without requiring a type
// switch over a dozen concrete struct types for every tree walk.
type Node struct {
	Kind Kind

	// Leaf payloads.
	BoolValue   bool
	FloatValue  float64
	StringValue string
	SignalID    uint32
	WindowFn    window.Function

	// CUSTOM / FETCH_REQUEST payloads.
	CustomName   string
	InvocationID uint64
	FetchID      uint32

	// Children, by position: NOT/IS_NEW/WINDOW use Children[0]; binary
	// operators use Children[0:2]; IF uses Children[0:3]
	// (cond, then, else); CUSTOM uses Children as its argument list.
	Children []*Node
}

func Boolean(b bool) *Node { return &Node{Kind: KindBoolean, BoolValue: b} }
func Float(x float64) *Node { return &Node{Kind: KindFloat, FloatValue: x} }
func String(s string) *Node { return &Node{Kind: KindString, StringValue: s} }
func Signal(id uint32) *Node { return &Node{Kind: KindSignal, SignalID: id} }
func Window(fn window.Function, signalID uint32) *Node {
	return &Node{Kind: KindWindow, WindowFn: fn, SignalID: signalID}
}
func IsNew(signalID uint32) *Node { return &Node{Kind: KindIsNew, SignalID: signalID} }
func Not(operand *Node) *Node     { return &Node{Kind: KindNot, Children: []*Node{operand}} }

func binary(kind Kind, left, right *Node) *Node {
	return &Node{Kind: kind, Children: []*Node{left, right}}
}

func And(l, r *Node) *Node    { return binary(KindAnd, l, r) }
func Or(l, r *Node) *Node     { return binary(KindOr, l, r) }
func Eq(l, r *Node) *Node     { return binary(KindEq, l, r) }
func Neq(l, r *Node) *Node    { return binary(KindNeq, l, r) }
func Lt(l, r *Node) *Node     { return binary(KindLt, l, r) }
func Le(l, r *Node) *Node     { return binary(KindLe, l, r) }
func Gt(l, r *Node) *Node     { return binary(KindGt, l, r) }
func Ge(l, r *Node) *Node     { return binary(KindGe, l, r) }
func Add(l, r *Node) *Node    { return binary(KindAdd, l, r) }
func Sub(l, r *Node) *Node    { return binary(KindSub, l, r) }
func Mul(l, r *Node) *Node    { return binary(KindMul, l, r) }
func Div(l, r *Node) *Node    { return binary(KindDiv, l, r) }
func Mod(l, r *Node) *Node    { return binary(KindMod, l, r) }
func BitAnd(l, r *Node) *Node { return binary(KindBitAnd, l, r) }
func BitOr(l, r *Node) *Node  { return binary(KindBitOr, l, r) }

func If(cond, then, els *Node) *Node {
	return &Node{Kind: KindIf, Children: []*Node{cond, then, els}}
}

// Custom builds a CUSTOM(name, args...) node. path identifies the node's
// position within its owning condition's expression tree (e.g.
// "scheme_7/cond_2/child_0"); it is hashed into a stable invocation id so
// the same AST position keeps calling a custom function with the same id
// across matrix swaps that reuse the same scheme.
func Custom(name, path string, args ...*Node) *Node {
	return &Node{
		Kind:         KindCustom,
		CustomName:   name,
		InvocationID: invocationIDFromPath(path),
		Children:     args,
	}
}

func ActiveDTCQuery() *Node { return &Node{Kind: KindActiveDTCQuery} }

func FetchRequest(fetchID uint32) *Node { return &Node{Kind: KindFetchRequest, FetchID: fetchID} }
