package ecs

// UpdateFrame is handed to a system for one phase call. Context is the
// system's query context; Commands buffers structural changes until the end
// of the current Update pass.
//
// The frame is reused across calls and must not be retained.
type UpdateFrame struct {
	DeltaTime float64
	System    SystemId
	Context   *Context
	Commands  *Commands
	World     *World
}

func newUpdateFrame(dt float64, w *World) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  w.commands,
		World:     w,
	}
}
