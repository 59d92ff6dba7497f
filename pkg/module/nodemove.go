package module

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/frame"
)

// NodeMoveModule scans the argument payload of a pending push_frame and
// verifies the sender's ownership/visibility claims before the kernel
// commits the actual transfer on the call-frame stack: "for each owned
// reference, checks the sender has it; for each global reference, records
// it in the callee visibility." Rejecting early here means a malformed
// payload never reaches Stack.PushFrame, which would otherwise surface the
// same violation but after other before-hooks had already run.
type NodeMoveModule struct {
	Base
}

func NewNodeMoveModule() *NodeMoveModule { return &NodeMoveModule{} }

func (m *NodeMoveModule) Name() string { return "node_move" }

func (m *NodeMoveModule) BeforePushFrame(ctx Context, _ frame.Actor, payload *frame.Payload) error {
	cur := ctx.Stack().Current()
	if cur == nil {
		return fmt.Errorf("node move module: no current frame")
	}
	for _, n := range payload.OwnedNodes {
		if !cur.Owns(n) {
			return fmt.Errorf("node move module: %w: %s", frame.ErrNotOwned, n)
		}
	}
	for _, n := range payload.Refs {
		if !cur.Visible(n) {
			return fmt.Errorf("node move module: %w: %s", frame.ErrNotVisible, n)
		}
	}
	return nil
}
