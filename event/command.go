package event

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/SamRodri/zng-sub001/vars"
	"github.com/SamRodri/zng-sub001/zid"
)

// ScopeKind distinguishes the three addressing levels a Command (or its
// metadata) can be scoped to.
type ScopeKind uint8

const (
	ScopeApp ScopeKind = iota
	ScopeWindow
	ScopeWidget
)

// Scope qualifies a Command or a CommandHandle to an App, Window or
// Widget address (spec §3 "Command").
type Scope struct {
	Kind   ScopeKind
	Window zid.WindowId
	Widget zid.WidgetId
}

// AppScope is the command scope that applies process-wide.
func AppScope() Scope { return Scope{Kind: ScopeApp} }

// WindowScope scopes a command to a single window.
func WindowScope(w zid.WindowId) Scope { return Scope{Kind: ScopeWindow, Window: w} }

// WidgetScope scopes a command to a single widget.
func WidgetScope(w zid.WidgetId) Scope { return Scope{Kind: ScopeWidget, Widget: w} }

// CommandParam is a type-erased, sharable payload carried by
// CommandArgs. The Rust original reference-counts it to avoid copying;
// in Go the GC already makes that unnecessary, so CommandParam is a
// thin wrapper for discoverability at call sites.
type CommandParam struct {
	Value any
}

// CommandArgs is the Args type for every Command's underlying Event.
type CommandArgs struct {
	Param   CommandParam
	Scope   Scope
	Enabled bool
}

// StateId names a slot of type T in a Command's scope-indexed Meta map.
// Two StateIds are equal only if obtained from the same NewStateId call.
type StateId[T any] struct{ id int64 }

var stateIDSeq int64

// NewStateId allocates a fresh, type-tagged metadata key.
func NewStateId[T any]() StateId[T] {
	return StateId[T]{id: atomic.AddInt64(&stateIDSeq, 1)}
}

// Meta is a scope-indexed state map: App scope plus one slot per window
// or widget scope actually used (spec §3 "meta").
type Meta struct {
	mu   sync.Mutex
	data map[Scope]map[int64]any
}

// GetMeta reads the value stored for id in scope, if any.
func GetMeta[T any](m *Meta, scope Scope, id StateId[T]) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	byID := m.data[scope]
	if byID == nil {
		return zero, false
	}
	v, ok := byID[id.id]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// SetMeta stores v for id in scope.
func SetMeta[T any](m *Meta, scope Scope, id StateId[T], v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[Scope]map[int64]any)
	}
	if m.data[scope] == nil {
		m.data[scope] = make(map[int64]any)
	}
	m.data[scope][id.id] = v
}

// CommandHandle is owned by a subscribing widget/extension. Release
// decrements the command's live/enabled handle counts; SetEnabled flips
// this handle's contribution without releasing it.
type CommandHandle struct {
	cmd     *Command
	scope   Scope
	mu      sync.Mutex
	alive   bool
	enabled bool
}

// SetEnabled changes whether this handle counts towards the command's
// IsEnabled() var.
func (h *CommandHandle) SetEnabled(enabled bool) {
	h.mu.Lock()
	h.enabled = enabled
	h.mu.Unlock()
	h.cmd.markDirty()
}

// Release drops the handle. It is idempotent.
func (h *CommandHandle) Release() {
	h.mu.Lock()
	if !h.alive {
		h.mu.Unlock()
		return
	}
	h.alive = false
	h.mu.Unlock()
	h.cmd.removeHandle(h)
}

// Command is a Command event: an Event[CommandArgs] addressable by
// (key, scope), with handle-counted has_handlers/is_enabled reactive
// vars and scope-indexed metadata (spec §3/§4.B).
type Command struct {
	key   string
	event *Event[CommandArgs]
	scope Scope
	Meta  *Meta
	hub   *vars.Hub

	mu          sync.Mutex
	handles     map[*CommandHandle]struct{}
	dirty       bool
	hasHandlers vars.Var[bool]
	isEnabled   vars.Var[bool]
}

var nameID = NewStateId[string]()
var infoID = NewStateId[string]()
var shortcutID = NewStateId[string]()

// NewCommand declares a command addressed by (key, scope). name/info/
// shortcut default from DeriveName(key) (spec §6).
func NewCommand(bus *Bus, hub *vars.Hub, key string, scope Scope) *Command {
	c := &Command{
		key:         key,
		scope:       scope,
		Meta:        &Meta{},
		hub:         hub,
		handles:     make(map[*CommandHandle]struct{}),
		hasHandlers: vars.New(hub, false),
		isEnabled:   vars.New(hub, false),
	}
	c.event = New[CommandArgs](bus, key, func(a CommandArgs) DeliveryList {
		switch a.Scope.Kind {
		case ScopeWidget:
			// Delivery is resolved by the caller (package loop) using
			// the current tree to build the widget's path; here we can
			// only broadcast and let Subscribe-side scope filtering
			// (Scoped) discard mismatches.
			return AllWidgets()
		default:
			return AllWidgets()
		}
	})
	c.event.OnUpdate(func(u *EventUpdate[CommandArgs]) {
		u.Args.Enabled = c.IsEnabled().Get()
	})
	SetMeta(c.Meta, AppScope(), nameID, DeriveName(key))
	SetMeta(c.Meta, AppScope(), infoID, DeriveName(key))
	SetMeta(c.Meta, AppScope(), shortcutID, DeriveName(key))
	return c
}

// DeriveName turns a command identifier like "FOO_CMD" into the default
// human-readable name "Foo" (spec §6).
func DeriveName(key string) string {
	k := strings.TrimSuffix(strings.ToUpper(key), "_CMD")
	parts := strings.FieldsFunc(k, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		if len(p) == 0 {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

// Key returns the command's event key.
func (c *Command) Key() string { return c.key }

// Scope returns the command's declared scope.
func (c *Command) Scope() Scope { return c.scope }

// Name returns the command's display name from its App-scope metadata
// (DeriveName(key) unless overwritten).
func (c *Command) Name() string {
	v, _ := GetMeta(c.Meta, AppScope(), nameID)
	return v
}

// Scoped returns a distinct view of the same underlying event for
// scope, with its own handle set: its Notify publishes with that scope
// and its Subscribe only delivers updates published for that exact
// scope. Subscribers of an App-scoped view still receive its updates
// (spec "command.scoped(scope)").
func (c *Command) Scoped(scope Scope) *Command {
	return &Command{
		key:         c.key,
		event:       c.event,
		scope:       scope,
		Meta:        c.Meta,
		hub:         c.hub,
		handles:     make(map[*CommandHandle]struct{}),
		hasHandlers: vars.New(c.hub, false),
		isEnabled:   vars.New(c.hub, false),
	}
}

// HasHandlers reports, reactively, whether at least one CommandHandle is
// live for this command's scope.
func (c *Command) HasHandlers() vars.Var[bool] { return c.hasHandlers }

// IsEnabled reports, reactively, whether at least one live handle has
// enabled=true.
func (c *Command) IsEnabled() vars.Var[bool] { return c.isEnabled }

// NewHandle registers a new live handle for this command's scope.
func (c *Command) NewHandle(enabled bool) *CommandHandle {
	h := &CommandHandle{cmd: c, scope: c.scope, alive: true, enabled: enabled}
	c.mu.Lock()
	c.handles[h] = struct{}{}
	c.dirty = true
	c.mu.Unlock()
	return h
}

func (c *Command) removeHandle(h *CommandHandle) {
	c.mu.Lock()
	delete(c.handles, h)
	c.dirty = true
	c.mu.Unlock()
}

func (c *Command) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// SyncVars recomputes HasHandlers/IsEnabled if handle state churned
// since the last call, queuing at most one write per var (spec §3
// "CommandHandle"); the new values land on the hub's next Flush.
// Package loop does not call it; the command's owner runs it once per
// update cycle.
func (c *Command) SyncVars() {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	c.dirty = false
	hasHandlers := false
	enabled := false
	for h := range c.handles {
		h.mu.Lock()
		hasHandlers = hasHandlers || h.alive
		enabled = enabled || (h.alive && h.enabled)
		h.mu.Unlock()
	}
	c.mu.Unlock()
	if c.hasHandlers.Get() != hasHandlers {
		c.hasHandlers.Set(hasHandlers)
	}
	if c.isEnabled.Get() != enabled {
		c.isEnabled.Set(enabled)
	}
}

// Notify publishes a command invocation with the given (optional)
// parameter, stamping Enabled from the current IsEnabled() value.
func (c *Command) Notify(param any) *EventUpdate[CommandArgs] {
	return c.event.Notify(CommandArgs{
		Param: CommandParam{Value: param},
		Scope: c.scope,
	})
}

// Subscribe registers a UI-phase handler for widget w, delivered only
// when the update's scope matches this command's own scope (App always
// matches; Window/Widget require an exact match), implementing the
// "Scoped" filtering promised above.
func (c *Command) Subscribe(w zid.WidgetId, h func(Phase, *EventUpdate[CommandArgs])) func() {
	return c.event.Subscribe(w, func(phase Phase, u *EventUpdate[CommandArgs]) {
		if !scopeAccepts(c.scope, u.Args.Scope) {
			return
		}
		h(phase, u)
	})
}

func scopeAccepts(commandScope, argsScope Scope) bool {
	if commandScope.Kind == ScopeApp {
		return true
	}
	return commandScope == argsScope
}
