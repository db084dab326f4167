package reconciler

import (
	"sort"
	"sync"
	"time"

	"dispatch/internal/sync/protocol"
)

// DefaultGrace is how long a touched order survives snapshots that omit it.
const DefaultGrace = 5 * time.Second

// Options configures a Reconciler. Zero values take the defaults.
type Options struct {
	// Grace keeps a speculatively edited order alive across a resync that
	// does not mention it yet.
	Grace time.Duration

	// OnTerminal runs once per order that reaches a terminal status, after it
	// left the live set.
	OnTerminal func(protocol.Order)

	// Schedule runs the terminal callback. Defaults to a new goroutine.
	Schedule func(func())

	Now func() time.Time
}

// entry is one live order. touchedAt is set when the order was edited
// locally, first arrived through a pushed event or was confirmed by a
// create-order ack; a resync that omits the order spares it until touchedAt
// is older than the grace window.
type entry struct {
	order     protocol.Order
	touchedAt time.Time
}

// Reconciler is scoped to one client session. It is safe for concurrent use.
type Reconciler struct {
	mu        sync.Mutex
	orders    map[string]entry
	retired   map[string]int64
	locations map[string]protocol.Location
	opts      Options
}

// New returns an empty reconciler for one client session.
func New(opts Options) *Reconciler {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Schedule == nil {
		opts.Schedule = func(fn func()) { go fn() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		orders:    make(map[string]entry),
		retired:   make(map[string]int64),
		locations: make(map[string]protocol.Location),
		opts:      opts,
	}
}

// Apply feeds one server message into the local state.
//
// Order events are merged by version. An order first learned from a pushed
// event is stamped so a snapshot computed before its creation committed
// cannot erase it. A successful create-order ack refreshes that stamp.
// Other messages are ignored.
func (r *Reconciler) Apply(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeResyncSnapshot:
		r.Resync(env.Orders, env.Locations)
		return
	case protocol.TypeCreateOrderAck:
		if env.Success != nil && *env.Success {
			r.touch(env.OrderID)
		}
		return
	case protocol.TypeOrderCreated, protocol.TypeOrderAccepted,
		protocol.TypeDeliveryStatusUpdate, protocol.TypeNoDriversAvailable:
	default:
		return
	}

	r.mu.Lock()
	var fire []protocol.Order
	if env.Order != nil {
		fire = r.mergeLocked(*env.Order, true)
	}
	if env.Location != nil {
		r.locations[env.Location.CourierID] = *env.Location
	}
	r.mu.Unlock()

	r.schedule(fire)
}

// Resync replaces the live set with a server snapshot. An order missing from
// the snapshot survives only if it was touched within the grace window: edited
// locally, just pushed by the server or just acknowledged as created.
func (r *Reconciler) Resync(orders []protocol.Order, locations []protocol.Location) {
	r.mu.Lock()
	now := r.opts.Now()
	seen := make(map[string]struct{}, len(orders))
	var fire []protocol.Order
	for _, o := range orders {
		seen[o.ID] = struct{}{}
		fire = append(fire, r.mergeLocked(o, false)...)
	}
	for id, e := range r.orders {
		if _, ok := seen[id]; ok {
			continue
		}
		if e.touchedAt.IsZero() || now.Sub(e.touchedAt) > r.opts.Grace {
			delete(r.orders, id)
		}
	}
	for _, loc := range locations {
		r.locations[loc.CourierID] = loc
	}
	r.mu.Unlock()

	r.schedule(fire)
}

// MarkLocal records a speculative local change, such as an optimistic status
// update made before the server confirms it.
func (r *Reconciler) MarkLocal(o protocol.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = entry{order: o, touchedAt: r.opts.Now()}
}

func (r *Reconciler) touch(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.orders[orderID]; ok {
		e.touchedAt = r.opts.Now()
		r.orders[orderID] = e
	}
}

// Orders returns the live set, oldest first.
func (r *Reconciler) Orders() []protocol.Order {
	r.mu.Lock()
	out := make([]protocol.Order, 0, len(r.orders))
	for _, e := range r.orders {
		out = append(out, e.order)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns one live order.
func (r *Reconciler) Get(orderID string) (protocol.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[orderID]
	return e.order, ok
}

// Location returns the last known position of a courier.
func (r *Reconciler) Location(courierID string) (protocol.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[courierID]
	return loc, ok
}

// mergeLocked applies one order revision and returns the orders whose
// terminal callback is due. pushed marks revisions from live events. The
// caller holds mu.
func (r *Reconciler) mergeLocked(incoming protocol.Order, pushed bool) []protocol.Order {
	if v, ok := r.retired[incoming.ID]; ok && incoming.Version <= v {
		return nil
	}

	var local *protocol.Order
	e, known := r.orders[incoming.ID]
	if known {
		local = &e.order
	}
	merged, applied := Merge(local, incoming)
	if !applied {
		return nil
	}

	if merged.IsTerminal() {
		delete(r.orders, merged.ID)
		r.retired[merged.ID] = merged.Version
		return []protocol.Order{merged}
	}
	touchedAt := e.touchedAt
	if !known && pushed {
		touchedAt = r.opts.Now()
	}
	r.orders[merged.ID] = entry{order: merged, touchedAt: touchedAt}
	return nil
}

func (r *Reconciler) schedule(orders []protocol.Order) {
	if r.opts.OnTerminal == nil {
		return
	}
	for _, o := range orders {
		r.opts.Schedule(func() { r.opts.OnTerminal(o) })
	}
}
