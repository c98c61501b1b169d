package lksi

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/edge-agent/internal/logger"
	"github.com/marmos91/edge-agent/pkg/engine"
	"github.com/marmos91/edge-agent/pkg/lksi/store"
	"github.com/marmos91/edge-agent/pkg/queue"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// Config carries everything an Inspector needs for its lifetime.
type Config struct {
	Store            *store.Store
	CommandResponses *queue.Queue[*CommandResponse]
}

// runtimeTemplate is the live state an activated or deactivated template
// carries between OnStateTemplatesChanged calls.
type runtimeTemplate struct {
	info TemplateInfo

	activated                   bool
	sendSnapshot                bool
	deactivateAfterSystemTimeMs uint64

	lastTriggerSystemMs uint64
	pendingPeriodic     map[signal.ID]struct{}
	changedSignals      []engine.CollectedSignal
}

// Inspector is the Last-Known-State Inspector: it tracks the latest value
// of every signal named by an activated state template and assembles
// periodic, snapshot, or on-change payloads for them.
type Inspector struct {
	cfg Config

	mu        sync.Mutex
	templates map[string]*runtimeTemplate
	latest    map[signal.ID]engine.CollectedSignal

	persisted *store.Metadata

	// haveVersion/lastVersion track the version of the last accepted
	// StateTemplates swap, so a stale diff arriving out of order is
	// rejected rather than rolling activation state backwards.
	haveVersion bool
	lastVersion uint64
}

// New constructs an Inspector, restoring persisted activation metadata
// from cfg.Store. A nil or empty store is tolerated: every template then
// starts deactivated, per spec §4.8.
func New(cfg Config) (*Inspector, error) {
	ins := &Inspector{
		cfg:       cfg,
		templates: make(map[string]*runtimeTemplate),
		latest:    make(map[signal.ID]engine.CollectedSignal),
	}

	if cfg.Store == nil {
		ins.persisted = &store.Metadata{StateTemplates: make(map[string]store.TemplateMetadata)}
		return ins, nil
	}

	meta, err := cfg.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore state template metadata: %w", err)
	}
	ins.persisted = meta
	logger.Info("restored state template metadata", "count", len(meta.StateTemplates))
	return ins, nil
}

// OnStateTemplatesChanged installs a new set of state templates, keeping
// activation state for templates that persisted across the swap and
// restoring activation/deactivation deadlines for newly seen ones from the
// last persisted metadata. version must be monotonically non-decreasing
// across calls; a diff carrying a version lower than the last accepted one
// is rejected outright (the swap may have arrived out of order) and this
// call is a no-op, reporting false.
func (ins *Inspector) OnStateTemplatesChanged(templates []TemplateInfo, version, nowMs uint64) bool {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	if ins.haveVersion && version < ins.lastVersion {
		logger.Warn("rejecting out-of-order state template swap",
			"version", version, "last_version", ins.lastVersion)
		return false
	}
	ins.haveVersion = true
	ins.lastVersion = version

	next := make(map[string]*runtimeTemplate, len(templates))
	for _, info := range templates {
		if existing, ok := ins.templates[info.ID]; ok {
			existing.info = info
			next[info.ID] = existing
			continue
		}

		rt := &runtimeTemplate{
			info:                info,
			lastTriggerSystemMs: nowMs,
			pendingPeriodic:     signalSet(info.Signals),
		}
		if persisted, ok := ins.persisted.StateTemplates[info.ID]; ok {
			rt.activated = persisted.Activated
			if persisted.DeactivateAfterSystemTimeMs > nowMs {
				rt.deactivateAfterSystemTimeMs = persisted.DeactivateAfterSystemTimeMs
			}
		}
		next[info.ID] = rt
	}

	ins.templates = next
	ins.pruneUnusedSignals()
	logger.Info("state template matrix updated", "count", len(next), "version", version)
	return true
}

func signalSet(signals []SignalInfo) map[signal.ID]struct{} {
	set := make(map[signal.ID]struct{}, len(signals))
	for _, s := range signals {
		set[s.SignalID] = struct{}{}
	}
	return set
}

// pruneUnusedSignals drops cached latest values for signals no longer
// named by any installed template.
func (ins *Inspector) pruneUnusedSignals() {
	used := make(map[signal.ID]struct{})
	for _, rt := range ins.templates {
		for _, s := range rt.info.Signals {
			used[s.SignalID] = struct{}{}
		}
	}
	for id := range ins.latest {
		if _, ok := used[id]; !ok {
			delete(ins.latest, id)
		}
	}
}

// AddSignal records signalID's latest value and marks it as changed for
// every activated template that lists it.
func (ins *Inspector) AddSignal(cs engine.CollectedSignal) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	ins.latest[cs.SignalID] = cs

	for _, rt := range ins.templates {
		if !rt.activated || !templateListsSignal(rt.info, cs.SignalID) {
			continue
		}
		rt.changedSignals = append(rt.changedSignals, cs)
		delete(rt.pendingPeriodic, cs.SignalID)
	}
}

func templateListsSignal(info TemplateInfo, id signal.ID) bool {
	for _, s := range info.Signals {
		if s.SignalID == id {
			return true
		}
	}
	return false
}

// CollectNextDataToSend assembles one Payload covering every template with
// data ready to send: a pending snapshot, changed signals, or a periodic
// window boundary. It returns nil if nothing is ready.
func (ins *Inspector) CollectNextDataToSend(nowMs uint64) *Payload {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	ids := make([]string, 0, len(ins.templates))
	for id := range ins.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	payload := &Payload{TriggerTimeMs: nowMs}

	for _, id := range ids {
		rt := ins.templates[id]

		if rt.deactivateAfterSystemTimeMs != 0 && nowMs > rt.deactivateAfterSystemTimeMs {
			ins.deactivate(rt)
		}

		var signalsToSend []engine.CollectedSignal

		switch {
		case rt.sendSnapshot:
			rt.sendSnapshot = false
			for _, s := range rt.info.Signals {
				if cs, ok := ins.latest[s.SignalID]; ok {
					signalsToSend = append(signalsToSend, cs)
				}
			}
			rt.pendingPeriodic = signalSet(rt.info.Signals)
			rt.lastTriggerSystemMs = nowMs

		case rt.activated:
			signalsToSend = rt.changedSignals
			if nowMs-rt.lastTriggerSystemMs >= rt.info.PeriodMs {
				for sid := range rt.pendingPeriodic {
					if cs, ok := ins.latest[sid]; ok {
						signalsToSend = append(signalsToSend, cs)
					}
				}
				rt.pendingPeriodic = signalSet(rt.info.Signals)
				rt.lastTriggerSystemMs = nowMs
			}
		}

		rt.changedSignals = nil

		if len(signalsToSend) == 0 {
			continue
		}

		payload.PerTemplate = append(payload.PerTemplate, TemplateSignals{
			TemplateID: id,
			Signals:    signalsToSend,
		})
	}

	if len(payload.PerTemplate) == 0 {
		return nil
	}
	return payload
}

// OnCommand processes one inbound state template command, returning and
// (if configured) enqueuing the CommandResponse.
func (ins *Inspector) OnCommand(req CommandRequest) *CommandResponse {
	ins.mu.Lock()
	resp := ins.handleCommand(req)
	ins.mu.Unlock()

	if ins.cfg.CommandResponses != nil {
		ins.cfg.CommandResponses.Push(resp)
	}
	return resp
}

func (ins *Inspector) handleCommand(req CommandRequest) *CommandResponse {
	rt, ok := ins.templates[req.TemplateID]
	if !ok {
		logger.Warn("command for missing state template", logger.SchemeID(req.TemplateID))
		return &CommandResponse{
			CommandID:   req.CommandID,
			Status:      ExecutionFailed,
			ReasonCode:  ReasonStateTemplateOutOfSync,
			Description: "Received a command for missing state template.",
		}
	}

	var reasonCode ReasonCode
	var description string

	switch req.Operation {
	case Activate:
		if rt.activated {
			logger.Info("updating already activated state template", logger.SchemeID(req.TemplateID))
			reasonCode = ReasonStateTemplateAlreadyActivated
			description = "state template already activated"
		} else {
			logger.Info("activating state template", logger.SchemeID(req.TemplateID))
		}

		rt.activated = true
		rt.sendSnapshot = true
		rt.lastTriggerSystemMs = req.ReceivedSystemMs

		var deactivateAfterSystemTimeMs uint64
		if req.DeactivateAfterSeconds == 0 {
			rt.deactivateAfterSystemTimeMs = 0
		} else {
			deactivateAfterSystemTimeMs = req.ReceivedSystemMs + uint64(req.DeactivateAfterSeconds)*1000
			rt.deactivateAfterSystemTimeMs = deactivateAfterSystemTimeMs
		}
		ins.persist(req.TemplateID, true, deactivateAfterSystemTimeMs)

	case Deactivate:
		if rt.activated {
			ins.deactivate(rt)
		} else {
			logger.Info("state template already deactivated, ignoring", logger.SchemeID(req.TemplateID))
			reasonCode = ReasonStateTemplateAlreadyDeactivated
			description = "state template already deactivated"
		}

	case FetchSnapshot:
		logger.Info("scheduling snapshot for state template", logger.SchemeID(req.TemplateID))
		rt.sendSnapshot = true

	default:
		logger.Error("unsupported state template command operation", logger.SchemeID(req.TemplateID))
		return &CommandResponse{
			CommandID:  req.CommandID,
			Status:     ExecutionFailed,
			ReasonCode: ReasonNotSupported,
		}
	}

	return &CommandResponse{
		CommandID:   req.CommandID,
		Status:      Succeeded,
		ReasonCode:  reasonCode,
		Description: description,
	}
}

func (ins *Inspector) deactivate(rt *runtimeTemplate) {
	logger.Info("deactivating state template", logger.SchemeID(rt.info.ID))
	rt.activated = false
	rt.deactivateAfterSystemTimeMs = 0
	ins.removePersisted(rt.info.ID)
}

func (ins *Inspector) persist(templateID string, activated bool, deactivateAfterSystemTimeMs uint64) {
	if ins.cfg.Store == nil {
		return
	}
	ins.persisted.StateTemplates[templateID] = store.TemplateMetadata{
		Activated:                   activated,
		DeactivateAfterSystemTimeMs: deactivateAfterSystemTimeMs,
	}
	if err := ins.cfg.Store.Save(ins.persisted); err != nil {
		logger.Error("failed to persist state template metadata", logger.Err(err), logger.SchemeID(templateID))
	}
}

func (ins *Inspector) removePersisted(templateID string) {
	if ins.cfg.Store == nil {
		return
	}
	delete(ins.persisted.StateTemplates, templateID)
	if err := ins.cfg.Store.Save(ins.persisted); err != nil {
		logger.Error("failed to persist state template metadata", logger.Err(err), logger.SchemeID(templateID))
	}
}
