package module

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/id"
)

type royaltyReservation struct {
	receiver   id.NodeID
	amount     auth.Decimal
	configured bool
}

// RoyaltyModule reserves a method's configured royalty cost on
// before_invoke and credits the recipient's vault once the invocation
// returns successfully; a failed invocation simply drops the reservation,
// since nothing was actually debited until credit time.
type RoyaltyModule struct {
	Base

	stack []royaltyReservation
}

func NewRoyaltyModule() *RoyaltyModule { return &RoyaltyModule{} }

func (m *RoyaltyModule) Name() string { return "royalty" }

func (m *RoyaltyModule) BeforeInvoke(ctx Context, inv *Invocation) error {
	if inv.Callee.Receiver.IsZero() {
		m.stack = append(m.stack, royaltyReservation{})
		return nil
	}
	amount, configured, err := ctx.ResolveRoyalty(inv.Callee.Receiver, inv.Callee.Ident)
	if err != nil {
		return fmt.Errorf("royalty module: resolve: %w", err)
	}
	m.stack = append(m.stack, royaltyReservation{
		receiver:   inv.Callee.Receiver,
		amount:     amount,
		configured: configured,
	})
	return nil
}

func (m *RoyaltyModule) AfterInvoke(ctx Context, _ int, ok bool) error {
	if len(m.stack) == 0 {
		return fmt.Errorf("royalty module: after_invoke without matching before_invoke")
	}
	res := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]

	if !ok || !res.configured || res.amount == 0 {
		return nil
	}
	if err := ctx.CreditRoyalty(res.receiver, res.amount); err != nil {
		return fmt.Errorf("%w: %v", ErrRoyaltyFailed, err)
	}
	return nil
}
