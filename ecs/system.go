package ecs

// System is a behavior unit run by a World. A system implements one or more
// of the phase interfaces below; a value implementing none of them is
// rejected when added.
//
// Systems declare the nodes they care about by implementing Filtered. A
// system without Filters gets its filter from its exported View fields, if
// it has any, and otherwise shares the world's NoFilter context.
type System any

// SystemId identifies a system within its World. The zero value is never
// assigned.
type SystemId uint32

// Startable systems run once when the world starts, or when they are first
// activated after that.
type Startable interface {
	Start(frame *UpdateFrame)
}

// Updatable systems run on every Update pass unless paused.
type Updatable interface {
	Update(frame *UpdateFrame)
}

// FixedUpdatable systems run on every FixedUpdate step.
type FixedUpdatable interface {
	FixedUpdate(frame *UpdateFrame)
}

// Renderable systems run on every Render pass.
type Renderable interface {
	Render(frame *UpdateFrame)
}

// Exitable systems run once when the world exits.
type Exitable interface {
	Exit(frame *UpdateFrame)
}

// PauseIgnorer is implemented by Update systems that keep running while the
// world is paused.
type PauseIgnorer interface {
	IgnorePause() bool
}

type phase uint8

const (
	phaseStart phase = iota
	phaseUpdate
	phaseFixedUpdate
	phaseRender
	phaseExit

	phaseCount
)

func (p phase) String() string {
	switch p {
	case phaseStart:
		return "start"
	case phaseUpdate:
		return "update"
	case phaseFixedUpdate:
		return "fixed_update"
	case phaseRender:
		return "render"
	case phaseExit:
		return "exit"
	}
	return "unknown"
}

type phaseMask uint8

func (m phaseMask) has(p phase) bool { return m&(1<<p) != 0 }

func systemPhases(s System) phaseMask {
	var m phaseMask
	if _, ok := s.(Startable); ok {
		m |= 1 << phaseStart
	}
	if _, ok := s.(Updatable); ok {
		m |= 1 << phaseUpdate
	}
	if _, ok := s.(FixedUpdatable); ok {
		m |= 1 << phaseFixedUpdate
	}
	if _, ok := s.(Renderable); ok {
		m |= 1 << phaseRender
	}
	if _, ok := s.(Exitable); ok {
		m |= 1 << phaseExit
	}
	return m
}

func runPhase(p phase, s System, frame *UpdateFrame) {
	switch p {
	case phaseStart:
		s.(Startable).Start(frame)
	case phaseUpdate:
		s.(Updatable).Update(frame)
	case phaseFixedUpdate:
		s.(FixedUpdatable).FixedUpdate(frame)
	case phaseRender:
		s.(Renderable).Render(frame)
	case phaseExit:
		s.(Exitable).Exit(frame)
	}
}
