package lksi

import "github.com/marmos91/edge-agent/pkg/engine"

// TemplateSignals is one state template's contribution to a Payload.
type TemplateSignals struct {
	TemplateID string
	Signals    []engine.CollectedSignal
}

// Payload is one assembled last-known-state collection, per spec §4.8:
// { trigger_time, per_template: Vec<{ template_id, signals }> }.
type Payload struct {
	TriggerTimeMs uint64
	PerTemplate   []TemplateSignals
}
