package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"milksync/internal/amqp"
	"milksync/internal/core"
	applog "milksync/internal/log"
)

// defaultMaxSeen bounds how many event ids are remembered for
// de-duplicating redeliveries.
const defaultMaxSeen = 10000

// TallyKey identifies one customer's deliveries in one calendar month.
type TallyKey struct {
	CustomerID int64
	Year       int
	Month      int
}

// Tally accumulates the deliveries seen for a TallyKey.
type Tally struct {
	Deliveries int
	MilkTotal  float64
}

// EventWorker consumes DeliverySynced events and keeps running monthly
// totals per customer. Redelivered events are counted once.
type EventWorker struct {
	mu      sync.Mutex
	totals  map[TallyKey]Tally
	seen    map[string]struct{}
	order   []string
	maxSeen int
}

func NewEventWorker() *EventWorker {
	return &EventWorker{
		totals:  make(map[TallyKey]Tally),
		seen:    make(map[string]struct{}),
		maxSeen: defaultMaxSeen,
	}
}

// HandleDeliverySynced records one event. Events without a customer or with
// an unreadable date are logged and acknowledged but not tallied.
func (w *EventWorker) HandleDeliverySynced(ctx context.Context, msg *amqp.DeliverySyncedMessage) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentAMQP).
		WithOperation(applog.OpConsume)
	fields[applog.FieldEventID] = msg.EventID

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[msg.EventID]; dup {
		slog.DebugContext(ctx, "Duplicate delivery event skipped", fields.ToSlice()...)
		return nil
	}
	w.remember(msg.EventID)

	var customerID, milkTotal any
	if msg.CustomerID != nil {
		customerID = *msg.CustomerID
	}
	if msg.MilkTotal != nil {
		milkTotal = *msg.MilkTotal
	}
	fields = fields.WithDelivery(customerID, msg.CustomerName, msg.Date, milkTotal)

	date := core.ParseDeliveryDate(msg.Date)
	if msg.CustomerID == nil || !date.Valid() {
		slog.WarnContext(ctx, "Delivery event not tallied", fields.ToSlice()...)
		return nil
	}

	key := TallyKey{CustomerID: *msg.CustomerID, Year: date.Year, Month: int(date.Month)}
	t := w.totals[key]
	t.Deliveries++
	if msg.MilkTotal != nil {
		t.MilkTotal += *msg.MilkTotal
	}
	w.totals[key] = t

	fields = fields.WithPeriod(key.Month, key.Year)
	fields["month_deliveries"] = t.Deliveries
	fields["month_milk_total"] = t.MilkTotal
	slog.InfoContext(ctx, "Delivery event recorded", fields.ToSlice()...)
	return nil
}

// remember must be called with mu held.
func (w *EventWorker) remember(id string) {
	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
	if len(w.order) > w.maxSeen {
		delete(w.seen, w.order[0])
		w.order = w.order[1:]
	}
}

// Tally returns the running totals for key.
func (w *EventWorker) Tally(key TallyKey) Tally {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totals[key]
}

// TallyEntry pairs a key with its totals.
type TallyEntry struct {
	Key   TallyKey
	Tally Tally
}

// Tallies returns every running total, ordered by customer, year and month.
func (w *EventWorker) Tallies() []TallyEntry {
	w.mu.Lock()
	out := make([]TallyEntry, 0, len(w.totals))
	for k, t := range w.totals {
		out = append(out, TallyEntry{Key: k, Tally: t})
	}
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// LogSummary writes one log line per running total. The totals live only in
// memory, so the consumer calls this on shutdown.
func (w *EventWorker) LogSummary(ctx context.Context) {
	entries := w.Tallies()
	for _, e := range entries {
		fields := applog.NewFields().
			WithComponent(applog.ComponentAMQP).
			WithPeriod(e.Key.Month, e.Key.Year)
		fields[applog.FieldCustomerID] = e.Key.CustomerID
		fields["month_deliveries"] = e.Tally.Deliveries
		fields["month_milk_total"] = e.Tally.MilkTotal
		slog.InfoContext(ctx, "Monthly delivery tally", fields.ToSlice()...)
	}
	slog.InfoContext(ctx, "Delivery tallies summarized",
		applog.FieldComponent, applog.ComponentAMQP,
		"tallies", len(entries))
}
