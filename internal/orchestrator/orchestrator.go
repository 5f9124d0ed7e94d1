// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/orders"
)

// OrderSource delivers the current active orders
type OrderSource interface {
	FetchActiveOrders(ctx context.Context) ([]*model.Order, error)
}

// PrinterSource delivers the registered printers eligible for dispatch
type PrinterSource interface {
	ListActive(ctx context.Context) ([]*model.Printer, error)
}

// Dispatcher prints an order on a set of printers
type Dispatcher interface {
	Dispatch(ctx context.Context, order *model.Order, printers []*model.Printer) *model.PrintJob
}

// JobSink persists finished print jobs, may be nil
type JobSink interface {
	Save(ctx context.Context, job *model.PrintJob) error
}

// Publisher pushes events to operator clients, may be nil
type Publisher interface {
	Publish(eventType model.EventType, data model.JSONObject, severity string)
}

// HealthReporter exposes order stream liveness, may be nil
type HealthReporter interface {
	Healthy(window time.Duration) bool
	LastEventAt() time.Time
}

// Config holds orchestrator tuning
type Config struct {
	PollInterval time.Duration
	HealthWindow time.Duration
	RetryPolicy  orders.Policy
}

// Status is a snapshot of the orchestrator state for the API
type Status struct {
	AlertShowing        bool      `json:"alert_showing"`
	PendingOrderIDs     []string  `json:"pending_order_ids"`
	PrintedCount        int       `json:"printed_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastPollAt          time.Time `json:"last_poll_at"`
	StreamHealthy       bool      `json:"stream_healthy"`
}

// Orchestrator drives the print pipeline: it polls the order system,
// decides which orders deserve the staff alert, prints each of them once,
// and tracks the dismissal baseline so an alert the staff waved away does
// not come straight back for the same orders.
type Orchestrator struct {
	logger     *zap.Logger
	config     *Config
	source     OrderSource
	printers   PrinterSource
	dispatcher Dispatcher
	jobs       JobSink
	publisher  Publisher
	stream     HealthReporter

	mutex            sync.Mutex
	printedOrders    map[string]bool
	lastDismissedIDs map[string]bool
	alertShowing     bool
	pendingOrderIDs  []string
	lastPollAt       time.Time
	streamWasHealthy bool

	pollNow chan struct{}
}

// New creates an Orchestrator
func New(logger *zap.Logger, config *Config, source OrderSource, printers PrinterSource, dispatcher Dispatcher, jobs JobSink, publisher Publisher, stream HealthReporter) *Orchestrator {
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Second
	}
	if config.HealthWindow <= 0 {
		config.HealthWindow = 30 * time.Second
	}
	return &Orchestrator{
		logger:           logger.With(zap.String("component", "orchestrator")),
		config:           config,
		source:           source,
		printers:         printers,
		dispatcher:       dispatcher,
		jobs:             jobs,
		publisher:        publisher,
		stream:           stream,
		printedOrders:    make(map[string]bool),
		lastDismissedIDs: make(map[string]bool),
		pollNow:          make(chan struct{}, 1),
		streamWasHealthy: true,
	}
}

// SetStream attaches the order stream health reporter. The stream is
// constructed after the orchestrator because its event callback points
// back here.
func (o *Orchestrator) SetStream(stream HealthReporter) {
	o.mutex.Lock()
	o.stream = stream
	o.mutex.Unlock()
}

// Run polls until the context is cancelled. Poll failures back off
// exponentially and fall back to a long interval once the retry budget is
// spent; a stream event through Kick short-circuits the wait.
func (o *Orchestrator) Run(ctx context.Context) {
	policy := o.config.RetryPolicy

	for {
		if err := o.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			policy.Failure()
			o.logger.Warn("Order poll failed",
				zap.Error(err),
				zap.Int("consecutive_failures", policy.Failures()),
			)
		} else {
			policy.Success()
		}

		o.checkStreamHealth()

		wait := o.config.PollInterval
		if d := policy.NextDelay(); d > wait {
			wait = d
		}

		select {
		case <-ctx.Done():
			return
		case <-o.pollNow:
		case <-time.After(wait):
		}
	}
}

// Kick requests an immediate poll, used when the order stream announces a
// new order. Non-blocking, a pending kick is enough.
func (o *Orchestrator) Kick() {
	select {
	case o.pollNow <- struct{}{}:
	default:
	}
}

// OnStreamEvent feeds order stream events into the poll loop
func (o *Orchestrator) OnStreamEvent(event orders.StreamEvent) {
	if event.Type == orders.StreamEventNewOrder {
		o.logger.Info("Order stream announced a new order", zap.String("order_id", event.OrderID))
		o.Kick()
	}
}

// Cycle runs one poll pass: fetch, classify, print, alert
func (o *Orchestrator) Cycle(ctx context.Context) error {
	activeOrders, err := o.source.FetchActiveOrders(ctx)
	if err != nil {
		return err
	}

	o.mutex.Lock()
	o.lastPollAt = time.Now()
	var worthy []*model.Order
	for _, order := range activeOrders {
		if !order.NotificationWorthy() {
			continue
		}
		if o.lastDismissedIDs[order.ID] {
			continue
		}
		worthy = append(worthy, order)
	}

	var toPrint []*model.Order
	ids := make([]string, 0, len(worthy))
	for _, order := range worthy {
		ids = append(ids, order.ID)
		if !o.printedOrders[order.ID] {
			toPrint = append(toPrint, order)
		}
	}
	o.pendingOrderIDs = ids

	raiseAlert := len(worthy) > 0 && !o.alertShowing
	if raiseAlert {
		o.alertShowing = true
	}
	o.mutex.Unlock()

	if raiseAlert {
		o.logger.Info("Raising order alert", zap.Int("orders", len(worthy)))
		o.publish(model.EventOrderAlert, model.JSONObject{
			"order_ids": ids,
			"count":     len(worthy),
		}, "WARNING")
	}

	for _, order := range toPrint {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.printOrder(ctx, order)
	}
	return nil
}

// printOrder dispatches one order and records the outcome. Orders are only
// marked printed when at least one printer produced the receipt, so a full
// failure is retried on the next poll.
func (o *Orchestrator) printOrder(ctx context.Context, order *model.Order) {
	printers, err := o.resolvePrinters(ctx, order)
	if err != nil {
		o.logger.Error("Failed to resolve printers for order",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return
	}

	job := o.dispatcher.Dispatch(ctx, order, printers)

	if o.jobs != nil {
		if err := o.jobs.Save(ctx, job); err != nil {
			o.logger.Error("Failed to persist print job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}

	severity := "INFO"
	if !job.Printed() {
		severity = "ERROR"
	}
	o.publish(model.EventPrintResult, model.JSONObject{
		"job_id":          job.ID.String(),
		"order_id":        order.ID,
		"overall_status":  string(job.OverallStatus),
		"message":         job.Message,
		"failed_printers": job.FailedPrinterNames(),
	}, severity)

	if job.Printed() {
		o.mutex.Lock()
		o.printedOrders[order.ID] = true
		o.mutex.Unlock()
	} else {
		o.logger.Warn("Order receipt not printed",
			zap.String("order_id", order.ID),
			zap.String("message", job.Message),
		)
	}
}

// resolvePrinters returns the active printers configured for the order's
// service type.
func (o *Orchestrator) resolvePrinters(ctx context.Context, order *model.Order) ([]*model.Printer, error) {
	all, err := o.printers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var applicable []*model.Printer
	for _, p := range all {
		if p.AppliesTo(order) {
			applicable = append(applicable, p)
		}
	}
	return applicable, nil
}

// Reprint manually prints one active order again, regardless of whether it
// was already printed. Used by staff when a receipt was lost or torn.
func (o *Orchestrator) Reprint(ctx context.Context, orderID string) (*model.PrintJob, error) {
	activeOrders, err := o.source.FetchActiveOrders(ctx)
	if err != nil {
		return nil, err
	}

	var target *model.Order
	for _, order := range activeOrders {
		if order.ID == orderID {
			target = order
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("order %s is not among the active orders", orderID)
	}

	printers, err := o.resolvePrinters(ctx, target)
	if err != nil {
		return nil, err
	}

	job := o.dispatcher.Dispatch(ctx, target, printers)
	if o.jobs != nil {
		if err := o.jobs.Save(ctx, job); err != nil {
			o.logger.Error("Failed to persist print job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}
	return job, nil
}

// Dismiss acknowledges the current alert. The orders on screen become the
// new baseline: they stay silent until a genuinely new order arrives. The
// printed set resets with the baseline so a dismissed order that comes
// back changed prints again.
func (o *Orchestrator) Dismiss() {
	o.mutex.Lock()
	o.alertShowing = false
	o.lastDismissedIDs = make(map[string]bool, len(o.pendingOrderIDs))
	for _, id := range o.pendingOrderIDs {
		o.lastDismissedIDs[id] = true
	}
	o.printedOrders = make(map[string]bool)
	count := len(o.lastDismissedIDs)
	o.mutex.Unlock()

	o.logger.Info("Order alert dismissed", zap.Int("baseline_orders", count))
	o.publish(model.EventAlertDismissed, model.JSONObject{"baseline_orders": count}, "INFO")
}

// Status returns a snapshot for the API
func (o *Orchestrator) Status() Status {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	streamHealthy := true
	if o.stream != nil {
		streamHealthy = o.stream.Healthy(o.config.HealthWindow)
	}
	return Status{
		AlertShowing:    o.alertShowing,
		PendingOrderIDs: append([]string{}, o.pendingOrderIDs...),
		PrintedCount:    len(o.printedOrders),
		LastPollAt:      o.lastPollAt,
		StreamHealthy:   streamHealthy,
	}
}

// checkStreamHealth publishes transitions of order stream liveness
func (o *Orchestrator) checkStreamHealth() {
	if o.stream == nil {
		return
	}
	healthy := o.stream.Healthy(o.config.HealthWindow)

	o.mutex.Lock()
	changed := healthy != o.streamWasHealthy
	o.streamWasHealthy = healthy
	o.mutex.Unlock()

	if !changed {
		return
	}
	if healthy {
		o.logger.Info("Order stream healthy again")
		o.publish(model.EventStreamHealth, model.JSONObject{"healthy": true}, "INFO")
	} else {
		o.logger.Warn("Order stream has gone quiet",
			zap.Time("last_event_at", o.stream.LastEventAt()),
		)
		o.publish(model.EventStreamHealth, model.JSONObject{
			"healthy":       false,
			"last_event_at": o.stream.LastEventAt(),
		}, "WARNING")
	}
}

func (o *Orchestrator) publish(eventType model.EventType, data model.JSONObject, severity string) {
	if o.publisher != nil {
		o.publisher.Publish(eventType, data, severity)
	}
}
