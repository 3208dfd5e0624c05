// Package graph composes the render graph roots of a frame into the
// command graph nodes that are recorded and submitted.
//
// A CommandGraphNode becomes one command buffer. In ModeCombined the
// offscreen and onscreen passes share a single node, in ModeSeparate each
// pass gets its own node and can be recorded on its own goroutine. Nodes
// are submitted in slice order, so the offscreen pass always runs first.
package graph

import (
	"errors"
	"fmt"

	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/render"
)

// ErrNilRoot is returned by Compose when a root is nil.
var ErrNilRoot = errors.New("graph: nil render graph root")

// Mode selects how roots are grouped into command graph nodes.
type Mode uint8

const (
	// ModeCombined records both passes into one command buffer.
	ModeCombined Mode = iota
	// ModeSeparate records each pass into its own command buffer.
	ModeSeparate
)

// String returns "combined" or "separate".
func (m Mode) String() string {
	switch m {
	case ModeCombined:
		return "combined"
	case ModeSeparate:
		return "separate"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// CommandGraphNode is one unit of recording and submission. Its children
// are recorded in order into one recorder that no other node uses.
type CommandGraphNode struct {
	Label    string
	Children []render.RenderGraphNode
}

// Record records every child into a fresh recorder and returns the
// finished recording.
func (n *CommandGraphNode) Record(frame *render.FrameContext) (*recording.Recording, error) {
	rec := recording.NewRecorder(n.Label)
	for _, c := range n.Children {
		if err := c.Record(rec, frame); err != nil {
			return nil, fmt.Errorf("record %s: %w", c.Label(), err)
		}
	}
	return rec.Finish()
}

// Compose groups the offscreen and onscreen roots. The result depends only
// on its arguments. Nil roots, including nil target pointers, are rejected.
func Compose(offscreen, onscreen render.RenderGraphNode, mode Mode) ([]*CommandGraphNode, error) {
	if isNil(offscreen) || isNil(onscreen) {
		return nil, ErrNilRoot
	}
	switch mode {
	case ModeCombined:
		return []*CommandGraphNode{{
			Label:    "frame",
			Children: []render.RenderGraphNode{offscreen, onscreen},
		}}, nil
	case ModeSeparate:
		return []*CommandGraphNode{
			{Label: offscreen.Label(), Children: []render.RenderGraphNode{offscreen}},
			{Label: onscreen.Label(), Children: []render.RenderGraphNode{onscreen}},
		}, nil
	}
	return nil, fmt.Errorf("graph: unknown mode %v", mode)
}

func isNil(n render.RenderGraphNode) bool {
	switch t := n.(type) {
	case nil:
		return true
	case *render.OffscreenTarget:
		return t == nil
	case *render.OnscreenTarget:
		return t == nil
	}
	return false
}
