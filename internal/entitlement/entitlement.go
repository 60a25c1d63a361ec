package entitlement

import (
	"context"
	"sync/atomic"
)

// StaticGate grants or denies access based on a flag that can be flipped at
// runtime, e.g. after a purchase is restored.
type StaticGate struct {
	pro atomic.Bool
}

func NewStaticGate(pro bool) *StaticGate {
	g := &StaticGate{}
	g.pro.Store(pro)
	return g
}

func (g *StaticGate) HasAccess(context.Context) bool {
	return g.pro.Load()
}

func (g *StaticGate) SetAccess(pro bool) {
	g.pro.Store(pro)
}
