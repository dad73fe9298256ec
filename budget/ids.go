package budget

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for categories, base expenses,
// transactions and goals.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs. It is the default.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceGenerator issues monotonically increasing ids ("tx-1", "tx-2", ...).
// Safe for concurrent use.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

// NewSequenceGenerator starts a sequence after the given value.
func NewSequenceGenerator(prefix string, after int64) *SequenceGenerator {
	g := &SequenceGenerator{Prefix: prefix}
	g.n.Store(after)
	return g
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}
