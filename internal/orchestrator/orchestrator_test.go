// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

type fakeSource struct {
	mutex  sync.Mutex
	orders []*model.Order
	err    error
}

func (f *fakeSource) FetchActiveOrders(ctx context.Context) ([]*model.Order, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]*model.Order{}, f.orders...), nil
}

func (f *fakeSource) set(orders ...*model.Order) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.orders = orders
}

type fakePrinters struct {
	printers []*model.Printer
}

func (f *fakePrinters) ListActive(ctx context.Context) ([]*model.Printer, error) {
	return f.printers, nil
}

type dispatched struct {
	orderID  string
	printers []*model.Printer
}

type fakeDispatcher struct {
	mutex  sync.Mutex
	calls  []dispatched
	status model.JobStatus
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, order *model.Order, printers []*model.Printer) *model.PrintJob {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, dispatched{orderID: order.ID, printers: printers})
	status := f.status
	if status == "" {
		status = model.JobStatusSuccess
	}
	now := time.Now()
	return &model.PrintJob{
		ID:            uuid.New(),
		OrderID:       order.ID,
		OverallStatus: status,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
}

func (f *fakeDispatcher) dispatchedOrders() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var ids []string
	for _, c := range f.calls {
		ids = append(ids, c.orderID)
	}
	return ids
}

type publishedEvent struct {
	eventType model.EventType
	data      model.JSONObject
	severity  string
}

type fakePublisher struct {
	mutex  sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(eventType model.EventType, data model.JSONObject, severity string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.events = append(f.events, publishedEvent{eventType, data, severity})
}

func (f *fakePublisher) ofType(eventType model.EventType) []publishedEvent {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeHealth struct {
	mutex   sync.Mutex
	healthy bool
	last    time.Time
}

func (f *fakeHealth) Healthy(window time.Duration) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.healthy
}

func (f *fakeHealth) LastEventAt() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.last
}

func onlineOrder(id, table string) *model.Order {
	return &model.Order{
		ID:            id,
		Table:         table,
		Status:        model.OrderStatusConfirmed,
		PaymentStatus: model.PaymentStatusPaid,
		PaymentMethod: "card",
		Items:         []model.OrderItem{{Name: "Soup", Quantity: 1}},
	}
}

func counterOrder(id, table string, payment model.PaymentStatus) *model.Order {
	return &model.Order{
		ID:            id,
		Table:         table,
		Status:        model.OrderStatusPending,
		PaymentStatus: payment,
		PaymentMethod: "counter-cash",
		Items:         []model.OrderItem{{Name: "Soup", Quantity: 1}},
	}
}

func testSetup(status model.JobStatus) (*Orchestrator, *fakeSource, *fakeDispatcher, *fakePublisher) {
	source := &fakeSource{}
	disp := &fakeDispatcher{status: status}
	pub := &fakePublisher{}
	printers := &fakePrinters{printers: []*model.Printer{
		{ID: uuid.New(), Name: "kitchen", LocalIP: "10.0.0.10", Port: 9100, ForDineIn: true, IsActive: true},
		{ID: uuid.New(), Name: "counter", LocalIP: "10.0.0.11", Port: 9100, ForTakeaway: true, IsActive: true},
	}}
	o := New(zap.NewNop(), &Config{}, source, printers, disp, nil, pub, nil)
	return o, source, disp, pub
}

func TestCyclePrintsWorthyOrdersOnce(t *testing.T) {
	o, source, disp, pub := testSetup("")
	source.set(onlineOrder("o1", "5"))

	if err := o.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if got := disp.dispatchedOrders(); len(got) != 1 || got[0] != "o1" {
		t.Fatalf("dispatched %v, want [o1]", got)
	}
	if alerts := pub.ofType(model.EventOrderAlert); len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}

	// Same orders again: already printed, alert already showing
	if err := o.Cycle(context.Background()); err != nil {
		t.Fatalf("second Cycle failed: %v", err)
	}
	if got := disp.dispatchedOrders(); len(got) != 1 {
		t.Errorf("printed order dispatched again: %v", got)
	}
	if alerts := pub.ofType(model.EventOrderAlert); len(alerts) != 1 {
		t.Errorf("alert raised twice for the same batch")
	}

	if !o.Status().AlertShowing {
		t.Error("alert should still be showing")
	}
}

func TestCycleSkipsUnworthyOrders(t *testing.T) {
	o, source, disp, pub := testSetup("")
	source.set(
		// Unpaid online order: not worthy
		&model.Order{ID: "u1", Table: "2", Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPending, PaymentMethod: "card"},
		// Takeaway counter order: settled face to face, not worthy
		counterOrder("u2", model.TakeawayTable, model.PaymentStatusPending),
		// Counter order already collected: not worthy
		counterOrder("u3", "4", model.PaymentStatusPaid),
	)

	if err := o.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if got := disp.dispatchedOrders(); len(got) != 0 {
		t.Errorf("dispatched %v, want none", got)
	}
	if alerts := pub.ofType(model.EventOrderAlert); len(alerts) != 0 {
		t.Errorf("got %d alerts, want 0", len(alerts))
	}
}

func TestPendingCounterDineInIsWorthy(t *testing.T) {
	o, source, disp, _ := testSetup("")
	source.set(counterOrder("c1", "7", model.PaymentStatusPending))

	if err := o.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if got := disp.dispatchedOrders(); len(got) != 1 || got[0] != "c1" {
		t.Errorf("dispatched %v, want [c1]", got)
	}
}

func TestFailedPrintRetriesNextCycle(t *testing.T) {
	o, source, disp, pub := testSetup(model.JobStatusFailed)
	source.set(onlineOrder("o1", "5"))

	o.Cycle(context.Background())
	o.Cycle(context.Background())

	if got := disp.dispatchedOrders(); len(got) != 2 {
		t.Fatalf("failed order should be retried, dispatched %v", got)
	}

	results := pub.ofType(model.EventPrintResult)
	if len(results) != 2 {
		t.Fatalf("got %d print results, want 2", len(results))
	}
	if results[0].severity != "ERROR" {
		t.Errorf("failed print result severity = %s, want ERROR", results[0].severity)
	}

	// Once printing succeeds the order is marked and not dispatched again
	disp.mutex.Lock()
	disp.status = model.JobStatusPartialSuccess
	disp.mutex.Unlock()
	o.Cycle(context.Background())
	o.Cycle(context.Background())
	if got := disp.dispatchedOrders(); len(got) != 3 {
		t.Errorf("partial success should mark the order printed, dispatched %v", got)
	}
}

func TestDismissBaselinesCurrentOrders(t *testing.T) {
	o, source, disp, pub := testSetup("")
	source.set(onlineOrder("o1", "5"), onlineOrder("o2", "6"))

	o.Cycle(context.Background())
	if !o.Status().AlertShowing {
		t.Fatal("alert should be showing before dismissal")
	}

	o.Dismiss()
	if o.Status().AlertShowing {
		t.Fatal("alert should be cleared after dismissal")
	}

	// Same orders again: baselined, no alert, no print
	o.Cycle(context.Background())
	if o.Status().AlertShowing {
		t.Error("dismissed orders must not re-raise the alert")
	}
	if got := disp.dispatchedOrders(); len(got) != 2 {
		t.Errorf("dismissed orders must not reprint, dispatched %v", got)
	}

	// A genuinely new order cuts through the baseline
	source.set(onlineOrder("o1", "5"), onlineOrder("o2", "6"), onlineOrder("o3", "7"))
	o.Cycle(context.Background())
	if !o.Status().AlertShowing {
		t.Error("a new order must raise the alert again")
	}
	got := disp.dispatchedOrders()
	if len(got) != 3 || got[2] != "o3" {
		t.Errorf("only the new order should print, dispatched %v", got)
	}

	if dismissed := pub.ofType(model.EventAlertDismissed); len(dismissed) != 1 {
		t.Errorf("got %d dismissal events, want 1", len(dismissed))
	}
}

func TestPrinterRouting(t *testing.T) {
	o, source, disp, _ := testSetup("")
	source.set(onlineOrder("t1", model.TakeawayTable))

	if err := o.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	disp.mutex.Lock()
	defer disp.mutex.Unlock()
	if len(disp.calls) != 1 {
		t.Fatalf("got %d dispatches, want 1", len(disp.calls))
	}
	printers := disp.calls[0].printers
	if len(printers) != 1 || printers[0].Name != "counter" {
		names := make([]string, 0, len(printers))
		for _, p := range printers {
			names = append(names, p.Name)
		}
		t.Errorf("takeaway order routed to %v, want [counter]", names)
	}
}

func TestCyclePropagatesFetchError(t *testing.T) {
	o, source, disp, _ := testSetup("")
	source.err = errors.New("upstream down")

	if err := o.Cycle(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if got := disp.dispatchedOrders(); len(got) != 0 {
		t.Errorf("nothing should dispatch on a failed fetch, got %v", got)
	}
}

func TestStreamHealthTransitions(t *testing.T) {
	source := &fakeSource{}
	disp := &fakeDispatcher{}
	pub := &fakePublisher{}
	health := &fakeHealth{healthy: true, last: time.Now()}
	o := New(zap.NewNop(), &Config{}, source, &fakePrinters{}, disp, nil, pub, health)

	o.checkStreamHealth()
	if events := pub.ofType(model.EventStreamHealth); len(events) != 0 {
		t.Fatalf("no transition yet, got %d events", len(events))
	}

	health.mutex.Lock()
	health.healthy = false
	health.mutex.Unlock()

	o.checkStreamHealth()
	o.checkStreamHealth()
	events := pub.ofType(model.EventStreamHealth)
	if len(events) != 1 {
		t.Fatalf("unhealthy transition should publish once, got %d", len(events))
	}
	if events[0].severity != "WARNING" {
		t.Errorf("unhealthy event severity = %s, want WARNING", events[0].severity)
	}

	health.mutex.Lock()
	health.healthy = true
	health.mutex.Unlock()

	o.checkStreamHealth()
	events = pub.ofType(model.EventStreamHealth)
	if len(events) != 2 {
		t.Fatalf("recovery should publish, got %d events", len(events))
	}
	if events[1].severity != "INFO" {
		t.Errorf("recovery event severity = %s, want INFO", events[1].severity)
	}

	if !o.Status().StreamHealthy {
		t.Error("Status should report the stream healthy again")
	}
}
