package ecs

import (
	"reflect"
	"slices"

	"go.uber.org/zap"
)

type toggleState uint8

const (
	toggleNone toggleState = iota
	toggleEnable
	toggleDisable
)

// systemEntry is the world's bookkeeping for one system.
type systemEntry struct {
	id          SystemId
	system      System
	name        string
	phases      phaseMask
	ignorePause bool
	ctx         *Context

	active        bool
	started       bool
	pending       toggleState
	pendingRemove bool
	removed       bool

	stats systemStatsInternal
}

// pausable reports whether Pause holds back the system's Update phase.
func (e *systemEntry) pausable() bool {
	return e.phases.has(phaseUpdate) && !e.ignorePause
}

func (w *World) newSystemEntry(s System) *systemEntry {
	if s == nil {
		panic("ecs: nil system")
	}
	name := systemName(s)
	phases := systemPhases(s)
	if phases == 0 {
		panic("ecs: system " + name + " implements no phase")
	}

	w.nextSystemId++
	e := &systemEntry{
		id:     w.nextSystemId,
		system: s,
		name:   name,
		phases: phases,
		active: true,
		stats:  newSystemStats(name),
	}
	if ignorer, ok := s.(PauseIgnorer); ok {
		e.ignorePause = ignorer.IgnorePause()
	}
	return e
}

// AddSystem queues s to be added at the end of the current Update pass, or
// at Start if that comes first. The returned ID is valid immediately.
func (w *World) AddSystem(s System) SystemId {
	e := w.newSystemEntry(s)
	w.pendingAdds = append(w.pendingAdds, e)
	return e.id
}

// AddSystemNow adds s right away. If the world has started, s starts too.
func (w *World) AddSystemNow(s System) SystemId {
	e := w.newSystemEntry(s)
	w.addSystem(e)
	return e.id
}

// RemoveSystem queues the removal of a system. It reports false if the
// system is unknown or already queued for removal.
func (w *World) RemoveSystem(id SystemId) bool {
	if w.dropPendingAdd(id) {
		return true
	}
	e, ok := w.systems[id]
	if !ok || e.pendingRemove {
		return false
	}
	e.pendingRemove = true
	w.pendingRemoves = append(w.pendingRemoves, e)
	return true
}

// RemoveSystemNow removes a system right away.
func (w *World) RemoveSystemNow(id SystemId) bool {
	if w.dropPendingAdd(id) {
		return true
	}
	e, ok := w.systems[id]
	if !ok {
		return false
	}
	w.removeSystem(e)
	return true
}

// EnableSystem queues the activation of a system. It reports false if the
// system is unknown or would already be active once queued toggles apply.
// Enabling a system whose disable is still queued cancels that disable.
func (w *World) EnableSystem(id SystemId) bool {
	return w.toggleById(id, true, false)
}

// EnableSystemNow activates a system right away.
func (w *World) EnableSystemNow(id SystemId) bool {
	return w.toggleById(id, true, true)
}

// DisableSystem queues the deactivation of a system. See EnableSystem.
func (w *World) DisableSystem(id SystemId) bool {
	return w.toggleById(id, false, false)
}

// DisableSystemNow deactivates a system right away.
func (w *World) DisableSystemNow(id SystemId) bool {
	return w.toggleById(id, false, true)
}

// IsSystemActive reports whether a system currently runs in its phases.
// Queued toggles are not taken into account, and pausing does not change it.
func (w *World) IsSystemActive(id SystemId) bool {
	e, ok := w.systems[id]
	return ok && e.active
}

// SystemIds returns the IDs of the added systems in registration order.
func (w *World) SystemIds() []SystemId {
	ids := make([]SystemId, len(w.order))
	for i, e := range w.order {
		ids[i] = e.id
	}
	return ids
}

// System returns the system registered under id.
func (w *World) System(id SystemId) (System, bool) {
	if e, ok := w.systems[id]; ok {
		return e.system, true
	}
	return nil, false
}

// ContextOf returns the query context of an added system.
func (w *World) ContextOf(id SystemId) (*Context, bool) {
	e, ok := w.systems[id]
	if !ok {
		return nil, false
	}
	return e.ctx, true
}

// SystemOf returns the ID of the first system of type T, including systems
// whose addition is queued.
func SystemOf[T System](w *World) (SystemId, bool) {
	for _, e := range w.order {
		if _, ok := e.system.(T); ok {
			return e.id, true
		}
	}
	for _, e := range w.pendingAdds {
		if _, ok := e.system.(T); ok {
			return e.id, true
		}
	}
	return 0, false
}

// EnableSystemOf queues the activation of the first system of type T.
func EnableSystemOf[T System](w *World) bool {
	id, ok := SystemOf[T](w)
	return ok && w.EnableSystem(id)
}

// DisableSystemOf queues the deactivation of the first system of type T.
func DisableSystemOf[T System](w *World) bool {
	id, ok := SystemOf[T](w)
	return ok && w.DisableSystem(id)
}

func (w *World) addSystem(e *systemEntry) {
	fields := bindableFields(e.system)
	e.ctx = w.getOrCreateContext(systemFilters(e.system, fields.views), false)
	e.ctx.refs++
	for _, v := range fields.views {
		v.Init(e.ctx)
	}
	for _, s := range fields.singletons {
		s.Init(w)
	}

	w.systems[e.id] = e
	w.order = append(w.order, e)
	w.phasesDirty = true
	w.logger.Debug("system added",
		zap.String("system", e.name),
		zap.Uint32("system_id", uint32(e.id)),
		zap.Uint64("context_id", uint64(e.ctx.id)),
		zap.Bool("ignore_pause", e.ignorePause),
	)

	if w.started && e.active && e.phases.has(phaseStart) {
		w.startSystem(e, newUpdateFrame(0, w))
	}
}

func (w *World) removeSystem(e *systemEntry) {
	e.removed = true
	e.active = false
	delete(w.systems, e.id)
	w.order = slices.DeleteFunc(slices.Clone(w.order), func(other *systemEntry) bool {
		return other == e
	})
	w.phasesDirty = true
	w.releaseContext(e.ctx)
	w.logger.Debug("system removed",
		zap.String("system", e.name),
		zap.Uint32("system_id", uint32(e.id)),
	)
}

func (w *World) dropPendingAdd(id SystemId) bool {
	i := slices.IndexFunc(w.pendingAdds, func(e *systemEntry) bool { return e.id == id })
	if i < 0 {
		return false
	}
	w.pendingAdds = slices.Delete(slices.Clone(w.pendingAdds), i, i+1)
	return true
}

func (w *World) toggleById(id SystemId, active, immediate bool) bool {
	if e, ok := w.systems[id]; ok {
		return w.toggle(e, active, immediate)
	}
	for _, e := range w.pendingAdds {
		if e.id == id {
			if e.active == active {
				return false
			}
			e.active = active
			return true
		}
	}
	return false
}

// toggle requests a system state change. The state a request is compared to
// includes queued toggles, so opposite requests cancel out.
func (w *World) toggle(e *systemEntry, active, immediate bool) bool {
	effective := e.active
	if e.pending != toggleNone {
		effective = e.pending == toggleEnable
	}
	if effective == active {
		return false
	}

	if e.pending != toggleNone {
		e.pending = toggleNone
		return true
	}
	if immediate {
		w.setActive(e, active)
		return true
	}
	if active {
		e.pending = toggleEnable
	} else {
		e.pending = toggleDisable
	}
	w.pendingToggles = append(w.pendingToggles, e)
	return true
}

func (w *World) setActive(e *systemEntry, active bool) {
	e.active = active
	w.phasesDirty = true
	w.logger.Debug("system toggled",
		zap.String("system", e.name),
		zap.Uint32("system_id", uint32(e.id)),
		zap.Bool("active", active),
	)
	if active && w.started && !e.started && e.phases.has(phaseStart) {
		w.startSystem(e, newUpdateFrame(0, w))
	}
}

// applyPendingSystems applies queued additions and removals in request
// order, including the ones queued while applying.
func (w *World) applyPendingSystems() {
	for len(w.pendingAdds) > 0 || len(w.pendingRemoves) > 0 {
		adds, removes := w.pendingAdds, w.pendingRemoves
		w.pendingAdds, w.pendingRemoves = nil, nil

		for _, e := range adds {
			w.addSystem(e)
		}
		for _, e := range removes {
			if !e.removed {
				w.removeSystem(e)
			}
		}
	}
}

func (w *World) applyPendingToggles() {
	toggles := w.pendingToggles
	w.pendingToggles = nil
	for _, e := range toggles {
		if e.removed || e.pending == toggleNone {
			continue
		}
		active := e.pending == toggleEnable
		e.pending = toggleNone
		if e.active != active {
			w.setActive(e, active)
		}
	}
}

// systemFilters returns the filter entries of s. Filters declared by s take
// precedence over the ones implied by its views.
func systemFilters(s System, views []viewBinder) []FilterEntry {
	if f, ok := s.(Filtered); ok {
		return f.Filters()
	}
	var entries []FilterEntry
	for _, v := range views {
		entries = append(entries, v.Filters()...)
	}
	return entries
}

type systemFields struct {
	views      []viewBinder
	singletons []singletonBinder
}

// bindableFields finds the exported View and Singleton fields of a struct
// system, by value or by pointer. Nil pointer fields are allocated.
func bindableFields(s System) systemFields {
	var fields systemFields

	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fields
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fields
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		var target reflect.Value
		switch field.Kind() {
		case reflect.Struct:
			target = field.Addr()
		case reflect.Pointer:
			if !field.Type().Implements(viewBinderType) && !field.Type().Implements(singletonBinderType) {
				continue
			}
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			target = field
		default:
			continue
		}

		switch b := target.Interface().(type) {
		case viewBinder:
			fields.views = append(fields.views, b)
		case singletonBinder:
			fields.singletons = append(fields.singletons, b)
		}
	}
	return fields
}

var (
	viewBinderType      = reflect.TypeFor[viewBinder]()
	singletonBinderType = reflect.TypeFor[singletonBinder]()
)

func systemName(s System) string {
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
