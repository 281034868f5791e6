// SPDX-License-Identifier: Unlicense OR MIT

// Package loop drives the cooperative application loop (spec §4.F):
// drain raw events, run the event/update/info/layout/render passes in
// strict order, and decide the next control-flow action. Exactly one
// goroutine should ever call Loop.RunOnce/Run.
package loop

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SamRodri/zng-sub001/event"
	"github.com/SamRodri/zng-sub001/vars"
)

// ControlFlow is the loop's decision after one cycle.
type ControlFlow int

const (
	Poll ControlFlow = iota
	Wait
	Exit
)

// TimeMode selects how Loop.Now behaves across a cycle (spec §4.F
// "Time").
type TimeMode int

const (
	// Now re-reads the system clock on every call.
	Now TimeMode = iota
	// UpdatePaused, the default, freezes the clock for the duration of
	// one whole pass so every piece of code run within it observes the
	// same instant.
	UpdatePaused
	// Manual never reads the system clock; tests advance it explicitly
	// via Loop.AdvanceTime.
	Manual
)

// Extension is one app-extension's hooks into the loop, run in
// registration order for init/update phases and reverse order for
// deinit (spec §4.F step 4, "Exit").
type Extension interface {
	Init()
	UpdatePreview()
	UpdateUI()
	Update()
	Deinit()
}

// RawEvent is one event delivered by the view-process, before
// high-level coalescing.
type RawEvent struct {
	Kind string
	Data any
}

// Coalescer merges a batch of raw events (e.g. consecutive cursor
// moves) into the high-level events to actually dispatch this cycle.
type Coalescer func(raw []RawEvent) []func(bus *event.Bus)

// Safety thresholds from spec §4.F "Loop safety".
const (
	traceThreshold = 500
	logThreshold   = 1000
	resetThreshold = 1500
	resetTo        = 1001
)

// Loop is the single-threaded cooperative scheduler. It owns the event
// bus and reactive-variable hub and drives them through one cycle at a
// time.
type Loop struct {
	Bus *event.Bus
	Hub *vars.Hub

	extensions []Extension
	coalesce   Coalescer
	walk       event.WidgetWalker

	mode      TimeMode
	manualNow time.Time
	frozenNow time.Time
	frozenSet bool

	updateCounter int
	tracing       bool
	exitRequested bool
	exitCancelled bool

	// requested work, set by extensions/widgets calling RequestInfo /
	// RequestLayout / RequestRender during update.
	infoRequested   bool
	layoutRequested bool
	renderRequested bool
	viewBusy        bool

	onInfo   func()
	onLayout func()
	onRender func()
}

// New constructs a Loop. walk lets event.Bus.DeliverOne traverse the
// current widget-info tree; onInfo/onLayout/onRender are the
// info/layout/render pass callbacks, invoked only when requested.
func New(bus *event.Bus, hub *vars.Hub, walk event.WidgetWalker, coalesce Coalescer, onInfo, onLayout, onRender func()) *Loop {
	return &Loop{
		Bus:      bus,
		Hub:      hub,
		walk:     walk,
		coalesce: coalesce,
		mode:     UpdatePaused,
		onInfo:   onInfo,
		onLayout: onLayout,
		onRender: onRender,
	}
}

// AddExtension registers an extension; Init runs immediately.
func (l *Loop) AddExtension(e Extension) {
	l.extensions = append(l.extensions, e)
	e.Init()
}

// SetTimeMode selects how Now() behaves.
func (l *Loop) SetTimeMode(m TimeMode) { l.mode = m }

// StartManualTime enters Manual mode pinned at t. Calling AdvanceTime
// before this has run is a programmer error (spec §8): it is logged and
// ignored. Now in Manual mode before this has run returns the zero time.
func (l *Loop) StartManualTime(t time.Time) {
	l.mode = Manual
	l.manualNow = t
}

// AdvanceTime moves the manual clock forward by d.
func (l *Loop) AdvanceTime(d time.Duration) {
	if l.mode != Manual || l.manualNow.IsZero() {
		logrus.Error("loop: AdvanceTime called without StartManualTime")
		return
	}
	l.manualNow = l.manualNow.Add(d)
}

// Now returns the time the current pass should observe.
func (l *Loop) Now() time.Time {
	switch l.mode {
	case Manual:
		return l.manualNow
	case UpdatePaused:
		if l.frozenSet {
			return l.frozenNow
		}
		return time.Now()
	default:
		return time.Now()
	}
}

func (l *Loop) freezeForPass() {
	if l.mode == UpdatePaused {
		l.frozenNow = time.Now()
		l.frozenSet = true
	}
}

func (l *Loop) unfreeze() { l.frozenSet = false }

// RequestInfo/RequestLayout/RequestRender mark work pending for the
// next cycle's corresponding phase.
func (l *Loop) RequestInfo()   { l.infoRequested = true }
func (l *Loop) RequestLayout() { l.layoutRequested = true }
func (l *Loop) RequestRender() { l.renderRequested = true }

// SetViewBusy reports whether the view-process can currently accept a
// frame; render is deferred while true (spec §4.F step 7).
func (l *Loop) SetViewBusy(busy bool) { l.viewBusy = busy }

// RequestExit enqueues EXIT_REQUESTED-style shutdown; CancelExit lets a
// handler veto it during delivery (spec §4.F "Exit").
func (l *Loop) RequestExit() { l.exitRequested = true }
func (l *Loop) CancelExit()  { l.exitCancelled = true }

// RunOnce executes exactly one cycle of spec §4.F steps 1-8 and
// returns the resulting control-flow decision. raw is the batch of
// view-process events drained this cycle (already available; blocking
// for the next batch when Wait is returned is the caller's
// responsibility, matching the teacher's event-loop/backend split).
func (l *Loop) RunOnce(raw []RawEvent) ControlFlow {
	l.freezeForPass()
	defer l.unfreeze()

	// Step 2: coalesce raw events into high-level dispatches.
	if l.coalesce != nil {
		for _, dispatch := range l.coalesce(raw) {
			dispatch(l.Bus)
		}
	}

	// Step 3: event phase, FIFO, flushing variable writes after each.
	for l.Bus.Pending() {
		l.Bus.DeliverOne(l.walk)
		l.Hub.Flush()
	}

	// Step 4: update phase.
	didWork := l.runUpdatePhase()
	l.Hub.PollAnimations(l.Now())

	// Step 5: info phase.
	if l.infoRequested && l.onInfo != nil {
		l.infoRequested = false
		l.onInfo()
		didWork = true
	}

	// Step 6: layout phase; if it requested another update, loop back
	// into update before attempting layout again (spec §4.F "info →
	// layout → render per cycle; if layout requests an update, the
	// loop reruns update before re-attempting layout").
	for l.layoutRequested && l.onLayout != nil {
		l.layoutRequested = false
		l.onLayout()
		didWork = true
		if l.Hub.HasPending() {
			l.runUpdatePhase()
			l.layoutRequested = true
		} else {
			break
		}
	}

	// Step 7: render, only once no info/update/layout work is pending
	// and the view-process can accept a frame.
	produced := false
	if l.renderRequested && l.onRender != nil && !l.viewBusy &&
		!l.infoRequested && !l.layoutRequested && !l.Hub.HasPending() {
		l.renderRequested = false
		l.onRender()
		produced = true
	}

	l.applyLoopSafety(produced)

	// Step 8.
	return l.decide(didWork || produced)
}

func (l *Loop) runUpdatePhase() bool {
	if !l.Hub.HasPending() && !l.anyExtensionDirty() {
		return false
	}
	l.Hub.Flush()
	for _, e := range l.extensions {
		e.UpdatePreview()
	}
	for _, e := range l.extensions {
		e.UpdateUI()
	}
	for _, e := range l.extensions {
		e.Update()
	}
	l.updateCounter++
	return true
}

// anyExtensionDirty is a hook point for future extension-driven work
// tracking; today update runs whenever a variable write is pending.
func (l *Loop) anyExtensionDirty() bool { return false }

func (l *Loop) applyLoopSafety(producedFrame bool) {
	if producedFrame {
		l.updateCounter = 0
		l.tracing = false
		return
	}
	switch {
	case l.updateCounter == traceThreshold:
		l.tracing = true
		logrus.Warn("loop: update counter exceeded 500 without a frame, starting trace collection")
	case l.updateCounter == logThreshold:
		logrus.Error("loop: update counter exceeded 1000 without a frame, logging top offenders and throttling updates")
	case l.updateCounter >= resetThreshold:
		l.updateCounter = resetTo
	}
}

func (l *Loop) decide(didWork bool) ControlFlow {
	if l.exitRequested {
		if !l.exitCancelled {
			for i := len(l.extensions) - 1; i >= 0; i-- {
				l.extensions[i].Deinit()
			}
			return Exit
		}
		l.exitRequested = false
		l.exitCancelled = false
	}
	if l.tracing && l.updateCounter >= logThreshold && l.updateCounter < resetThreshold {
		// throttle: skip immediate re-poll to let the system breathe.
		return Wait
	}
	if didWork || l.Hub.HasPending() || l.Bus.Pending() || l.infoRequested || l.layoutRequested || l.renderRequested {
		return Poll
	}
	return Wait
}
