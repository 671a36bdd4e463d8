// Package compute models data-parallel kernel dispatches over 16×16 thread
// groups, the command stream that orders them with barriers, and a CPU
// executor that runs a stream with real concurrency.
package compute

import "fmt"

// GroupSize is the edge length of a thread group in invocations.
const GroupSize = 16

// Groups returns the thread groups needed along one axis to cover a patch of
// the given diameter. A patch spans size+1 texels (offsets -size/2..size/2),
// so the dispatch always has an over-dispatch margin that kernels reject.
func Groups(size int) int {
	if size < 0 {
		return 0
	}
	return (size + 1 + GroupSize - 1) / GroupSize
}

// ID is a 2D index.
type ID struct {
	X, Y int
}

// Invocation identifies one kernel invocation inside a dispatch.
type Invocation struct {
	Group  ID
	Local  ID
	Global ID // Group*GroupSize + Local
}

// NewInvocation builds an invocation from its group and local ids.
func NewInvocation(group, local ID) Invocation {
	return Invocation{
		Group: group,
		Local: local,
		Global: ID{
			X: group.X*GroupSize + local.X,
			Y: group.Y*GroupSize + local.Y,
		},
	}
}

// Resource is a named buffer or texture bound to kernels.
type Resource interface {
	ResourceName() string
}

// Access describes how a kernel uses a bound resource.
type Access uint8

const (
	Read Access = 1 << iota
	Write
	ReadWrite = Read | Write
)

// Reads reports whether the access includes reading.
func (a Access) Reads() bool { return a&Read != 0 }

// Writes reports whether the access includes writing.
func (a Access) Writes() bool { return a&Write != 0 }

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	}
	return fmt.Sprintf("Access(%d)", uint8(a))
}

// Binding attaches a resource to a kernel with an access mode.
type Binding struct {
	Resource Resource
	Access   Access
}

// Kernel is one dispatchable compute program with its parameters bound.
//
// Invoke is called once per invocation, concurrently and in no defined
// order. It must only write texels it owns and must never block.
type Kernel interface {
	Name() string
	Bindings() []Binding
	Groups() (x, y int)
	Invoke(inv Invocation)
}
