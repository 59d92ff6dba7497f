package module

import (
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	gasConsumedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerkernel_gas_consumed_total",
		Help: "Total gas units consumed across all transactions.",
	})
	gasExhaustedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerkernel_gas_exhausted_total",
		Help: "Total transactions aborted for exceeding their gas budget.",
	})
)

func init() {
	prometheus.MustRegister(gasConsumedTotal, gasExhaustedTotal)
}

// CostTable assigns a flat gas cost to each kernel event the costing module
// observes. A flat per-event table stands in for the upstream engine's much
// larger fee schedule (per-byte substate costs, WASM instruction costs,
// …) — out of scope here since there is no real sandboxed executor to meter.
type CostTable struct {
	Invoke       uint64
	PushFrame    uint64
	CreateNode   uint64
	DropNode     uint64
	LockSubstate uint64
	ReadSubstate uint64
	WriteSubstate uint64
}

// DefaultCostTable is a reasonable flat schedule for tests and the sample
// CLI; production deployments would tune it against a real fee schedule.
var DefaultCostTable = CostTable{
	Invoke:        500,
	PushFrame:     300,
	CreateNode:    1000,
	DropNode:      200,
	LockSubstate:  100,
	ReadSubstate:  50,
	WriteSubstate: 150,
}

// CostingModule meters gas against a fixed per-transaction budget. It is
// always placed first in the pipeline so its before-hooks charge before any
// other module's work, and last among after-hooks so it accounts for the
// full cost of everything that ran underneath it.
type CostingModule struct {
	Base

	budget   uint64
	consumed uint64
	costs    CostTable
}

// NewCostingModule returns a costing module with budget gas units available
// and the default cost table.
func NewCostingModule(budget uint64) *CostingModule {
	return &CostingModule{budget: budget, costs: DefaultCostTable}
}

// WithCostTable overrides the default flat cost schedule.
func (m *CostingModule) WithCostTable(t CostTable) *CostingModule {
	m.costs = t
	return m
}

// GasConsumed reports the running total charged so far.
func (m *CostingModule) GasConsumed() uint64 { return m.consumed }

// GasRemaining reports the budget left, zero once exhausted.
func (m *CostingModule) GasRemaining() uint64 {
	if m.consumed >= m.budget {
		return 0
	}
	return m.budget - m.consumed
}

func (m *CostingModule) charge(amount uint64) error {
	m.consumed += amount
	gasConsumedTotal.Add(float64(amount))
	if m.consumed > m.budget {
		gasExhaustedTotal.Inc()
		return ErrOutOfGas
	}
	return nil
}

func (m *CostingModule) Name() string { return "costing" }

func (m *CostingModule) BeforeInvoke(Context, *Invocation) error {
	return m.charge(m.costs.Invoke)
}

func (m *CostingModule) BeforePushFrame(Context, frame.Actor, *frame.Payload) error {
	return m.charge(m.costs.PushFrame)
}

func (m *CostingModule) BeforeCreateNode(Context, id.NodeID, substate.NodeInit) error {
	return m.charge(m.costs.CreateNode)
}

func (m *CostingModule) BeforeDropNode(Context, id.NodeID) error {
	return m.charge(m.costs.DropNode)
}

func (m *CostingModule) BeforeLockSubstate(Context, substate.Address, substate.LockFlags) error {
	return m.charge(m.costs.LockSubstate)
}

func (m *CostingModule) OnReadSubstate(Context, substate.LockHandle, int) error {
	return m.charge(m.costs.ReadSubstate)
}

func (m *CostingModule) OnWriteSubstate(Context, substate.LockHandle, int) error {
	return m.charge(m.costs.WriteSubstate)
}
