// Package idgen provides the identifiers used by the engine and its tooling.
package idgen

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// ID is a unique identifier represented as a uint64.
type ID uint64

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is 1. The engine
// uses it for event sequence numbers, so two generators never share state.
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

// UniqueName returns prefix followed by a globally unique, sortable suffix.
// It is not deterministic and must not influence simulation results.
func UniqueName(prefix string) string {
	return prefix + xid.New().String()
}
