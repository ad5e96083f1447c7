package ecs

import "unsafe"

// iface is the runtime layout of an `any` value. For pointer components the
// data word is the component pointer.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
