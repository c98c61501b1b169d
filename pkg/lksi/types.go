// Package lksi implements the Last-Known-State Inspector (LKSI, spec
// component C9): a second evaluator running alongside the inspection
// engine that tracks the latest value of every signal listed by a state
// template and emits it on a periodic schedule, on an explicit snapshot
// request, or implicitly whenever the signal changes.
package lksi

import "github.com/marmos91/edge-agent/pkg/signal"

// SignalInfo names one signal a state template tracks and the type it
// carries, mirroring the shape ACT uses for its own buffer refs.
type SignalInfo struct {
	SignalID signal.ID
	Type     signal.Type
}

// TemplateInfo is one entry of a StateTemplates swap: the immutable
// description of what a template collects and how often.
type TemplateInfo struct {
	ID       string
	PeriodMs uint64
	Signals  []SignalInfo
}

// Operation is the action requested by an inbound state template command.
type Operation int

const (
	Activate Operation = iota
	Deactivate
	FetchSnapshot
)

func (op Operation) String() string {
	switch op {
	case Activate:
		return "ACTIVATE"
	case Deactivate:
		return "DEACTIVATE"
	case FetchSnapshot:
		return "FETCH_SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// CommandRequest is one inbound state template command, per spec §6's
// on_state_template_command.
type CommandRequest struct {
	CommandID              string
	TemplateID             string
	Operation              Operation
	DeactivateAfterSeconds uint32
	ReceivedSystemMs       uint64
}

// CommandStatus is the outcome reported on a CommandResponse.
type CommandStatus int

const (
	Succeeded CommandStatus = iota
	ExecutionFailed
)

func (s CommandStatus) String() string {
	if s == Succeeded {
		return "SUCCEEDED"
	}
	return "EXECUTION_FAILED"
}

// ReasonCode qualifies a CommandResponse. Unspecified carries no
// information; the StateTemplateAlready* codes ride alongside SUCCEEDED
// purely informationally.
type ReasonCode int

const (
	ReasonUnspecified ReasonCode = iota
	ReasonStateTemplateOutOfSync
	ReasonNotSupported
	ReasonStateTemplateAlreadyActivated
	ReasonStateTemplateAlreadyDeactivated
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonUnspecified:
		return "UNSPECIFIED"
	case ReasonStateTemplateOutOfSync:
		return "STATE_TEMPLATE_OUT_OF_SYNC"
	case ReasonNotSupported:
		return "NOT_SUPPORTED"
	case ReasonStateTemplateAlreadyActivated:
		return "STATE_TEMPLATE_ALREADY_ACTIVATED"
	case ReasonStateTemplateAlreadyDeactivated:
		return "STATE_TEMPLATE_ALREADY_DEACTIVATED"
	default:
		return "UNKNOWN"
	}
}

// CommandResponse is pushed onto the command-response BMPQ for every
// CommandRequest the inspector processes.
type CommandResponse struct {
	CommandID   string
	Status      CommandStatus
	ReasonCode  ReasonCode
	Description string
}
