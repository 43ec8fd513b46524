package slab

import _ "unsafe" // for go:linkname

// procPin pins the calling goroutine to its current processor and returns the
// processor's id; procUnpin releases the pin. Pinning disables preemption, so
// the window between the two calls must not block.

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()
