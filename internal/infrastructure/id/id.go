package id

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OrderIDGenerator mints time-derived order ids of the form ORD<millis>.
// A monotonic guard keeps two orders in the same millisecond distinct.
type OrderIDGenerator struct {
	mu   sync.Mutex
	last int64
}

func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{}
}

func (g *OrderIDGenerator) NewOrderID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := time.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("ORD%d", ms)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
