package compute

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHazard is wrapped by every HazardError.
var ErrHazard = errors.New("compute: resource hazard")

// HazardKind classifies an unordered pair of accesses.
type HazardKind uint8

const (
	ReadAfterWrite HazardKind = iota
	WriteAfterRead
	WriteAfterWrite
)

func (k HazardKind) String() string {
	switch k {
	case ReadAfterWrite:
		return "read-after-write"
	case WriteAfterRead:
		return "write-after-read"
	case WriteAfterWrite:
		return "write-after-write"
	}
	return "unknown"
}

// HazardError reports two dispatches that touch the same resource without a
// barrier between them.
type HazardError struct {
	Kind     HazardKind
	Resource string
	First    string // earlier kernel
	Second   string // later kernel
	Index    int    // command index of the later dispatch
}

func (e *HazardError) Error() string {
	return fmt.Sprintf("compute: %s hazard on %q between %s and %s (command %d)",
		e.Kind, e.Resource, e.First, e.Second, e.Index)
}

func (e *HazardError) Unwrap() error { return ErrHazard }

// CommandKind distinguishes stream commands.
type CommandKind uint8

const (
	CmdDispatch CommandKind = iota
	CmdBarrier
)

// Command is one recorded stream entry.
type Command struct {
	Kind      CommandKind
	Kernel    Kernel     // CmdDispatch
	Resources []Resource // CmdBarrier; empty means every resource
}

// Stream records dispatches and barriers in submission order.
type Stream struct {
	cmds []Command
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Dispatch records a kernel dispatch.
func (s *Stream) Dispatch(k Kernel) *Stream {
	s.cmds = append(s.cmds, Command{Kind: CmdDispatch, Kernel: k})
	return s
}

// Barrier records an execution and memory barrier. Later dispatches observe
// every earlier write to the listed resources; with no resources the barrier
// covers everything.
func (s *Stream) Barrier(resources ...Resource) *Stream {
	s.cmds = append(s.cmds, Command{Kind: CmdBarrier, Resources: resources})
	return s
}

// Commands returns the recorded commands.
func (s *Stream) Commands() []Command { return s.cmds }

// Len returns the number of recorded commands.
func (s *Stream) Len() int { return len(s.cmds) }

// Dispatches returns the number of recorded dispatches.
func (s *Stream) Dispatches() int {
	n := 0
	for _, c := range s.cmds {
		if c.Kind == CmdDispatch {
			n++
		}
	}
	return n
}

// Segments splits the stream at barriers. Dispatches within a segment may
// run concurrently; segments run in order.
func (s *Stream) Segments() [][]Kernel {
	var (
		segs [][]Kernel
		cur  []Kernel
	)
	for _, c := range s.cmds {
		switch c.Kind {
		case CmdDispatch:
			cur = append(cur, c.Kernel)
		case CmdBarrier:
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
		}
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

type access struct {
	kernel string
	index  int
	mode   Access
}

// Validate checks that every pair of dispatches touching the same resource,
// where at least one writes, is separated by a barrier covering it.
func (s *Stream) Validate() error {
	pending := make(map[string][]access)

	for i, c := range s.cmds {
		switch c.Kind {
		case CmdBarrier:
			if len(c.Resources) == 0 {
				clear(pending)
				continue
			}
			for _, r := range c.Resources {
				delete(pending, r.ResourceName())
			}

		case CmdDispatch:
			name := c.Kernel.Name()
			for _, b := range c.Kernel.Bindings() {
				res := b.Resource.ResourceName()
				for _, prev := range pending[res] {
					if prev.index == i {
						continue
					}
					if kind, ok := conflict(prev.mode, b.Access); ok {
						return &HazardError{
							Kind:     kind,
							Resource: res,
							First:    prev.kernel,
							Second:   name,
							Index:    i,
						}
					}
				}
				pending[res] = append(pending[res], access{kernel: name, index: i, mode: b.Access})
			}
		}
	}
	return nil
}

// Settled reports whether every recorded write to r is followed by a
// barrier covering r, so that a consumer outside the stream may read it.
func (s *Stream) Settled(r Resource) bool {
	name := r.ResourceName()
	dirty := false
	for _, c := range s.cmds {
		switch c.Kind {
		case CmdDispatch:
			for _, b := range c.Kernel.Bindings() {
				if b.Access.Writes() && b.Resource.ResourceName() == name {
					dirty = true
				}
			}
		case CmdBarrier:
			if covers(c.Resources, name) {
				dirty = false
			}
		}
	}
	return !dirty
}

// String renders the stream for logs, e.g. "patch_update | heights | normals".
func (s *Stream) String() string {
	parts := make([]string, 0, len(s.cmds))
	for _, c := range s.cmds {
		if c.Kind == CmdDispatch {
			parts = append(parts, c.Kernel.Name())
			continue
		}
		if len(c.Resources) == 0 {
			parts = append(parts, "|")
			continue
		}
		names := make([]string, len(c.Resources))
		for i, r := range c.Resources {
			names[i] = r.ResourceName()
		}
		parts = append(parts, "|"+strings.Join(names, ",")+"|")
	}
	return strings.Join(parts, " ")
}

func conflict(prev, next Access) (HazardKind, bool) {
	switch {
	case prev.Writes() && next.Reads():
		return ReadAfterWrite, true
	case prev.Writes() && next.Writes():
		return WriteAfterWrite, true
	case prev.Reads() && next.Writes():
		return WriteAfterRead, true
	}
	return 0, false
}

func covers(resources []Resource, name string) bool {
	if len(resources) == 0 {
		return true
	}
	for _, r := range resources {
		if r.ResourceName() == name {
			return true
		}
	}
	return false
}
