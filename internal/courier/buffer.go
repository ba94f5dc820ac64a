package courier

import (
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// Pair matches the i-th order with the i-th courier id. Surplus orders or
// ids are left unpaired.
func Pair(orderIDs, courierIDs []string) []order.Assignment {
	n := min(len(orderIDs), len(courierIDs))
	out := make([]order.Assignment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, order.Assignment{OrderID: orderIDs[i], CourierNo: courierIDs[i]})
	}
	return out
}

// Buffers holds each admin's staged assignments and the in-flight flag that
// keeps one batch operation per admin at a time.
type Buffers struct {
	mu       sync.Mutex
	staged   map[string][]order.Assignment
	inFlight map[string]bool
}

func NewBuffers() *Buffers {
	return &Buffers{
		staged:   make(map[string][]order.Assignment),
		inFlight: make(map[string]bool),
	}
}

// Acquire marks a batch operation for adminID as running. It returns false
// when one is already running.
func (b *Buffers) Acquire(adminID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight[adminID] {
		return false
	}
	b.inFlight[adminID] = true
	return true
}

func (b *Buffers) Release(adminID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inFlight, adminID)
}

// Put replaces the staged assignments of adminID.
func (b *Buffers) Put(adminID string, pending []order.Assignment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(pending) == 0 {
		delete(b.staged, adminID)
		return
	}
	b.staged[adminID] = append([]order.Assignment(nil), pending...)
}

func (b *Buffers) Get(adminID string) []order.Assignment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]order.Assignment{}, b.staged[adminID]...)
}

func (b *Buffers) Clear(adminID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.staged, adminID)
}
