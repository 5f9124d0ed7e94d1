// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/utils"
)

// Transport is the slice of the printer transport the dispatcher needs
type Transport interface {
	Connect(ctx context.Context, ip string, port int, timeout time.Duration) (string, error)
	Send(ctx context.Context, connectionID string, data []byte) error
	Disconnect(connectionID string) error
}

// Config holds dispatch tuning
type Config struct {
	ConnectTimeout       time.Duration
	SettleDelay          time.Duration
	DelayAfterDisconnect time.Duration
	ReceiptBrand         string
	FoldDiacritics       bool
}

// Dispatcher sends formatted receipts to printers. All jobs, whatever
// goroutine submits them, funnel through one SerialQueue worker.
type Dispatcher struct {
	logger    *zap.Logger
	config    *Config
	transport Transport
	queue     *SerialQueue
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(logger *zap.Logger, config *Config, transport Transport) *Dispatcher {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	if config.DelayAfterDisconnect <= 0 {
		config.DelayAfterDisconnect = 300 * time.Millisecond
	}
	return &Dispatcher{
		logger:    logger.With(zap.String("component", "dispatch")),
		config:    config,
		transport: transport,
		queue:     NewSerialQueue(8),
	}
}

// Close drains the queue
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Dispatch prints an order on every dispatchable printer in the given
// list, one printer at a time. A failure on one printer records a result
// and moves on, it never aborts the remaining printers. The returned job
// always carries a final overall status.
func (d *Dispatcher) Dispatch(ctx context.Context, order *model.Order, printers []*model.Printer) *model.PrintJob {
	job := &model.PrintJob{
		ID:            uuid.New(),
		OrderID:       order.ID,
		OrderShortID:  order.ShortID(),
		OverallStatus: model.JobStatusPending,
		CreatedAt:     time.Now(),
	}

	var applicable []*model.Printer
	for _, p := range printers {
		if p.Dispatchable() {
			applicable = append(applicable, p)
		}
	}

	if len(applicable) == 0 {
		d.finish(job, "no applicable printers")
		return job
	}

	if err := d.queue.Do(ctx, func() {
		d.printAll(ctx, order, applicable, job)
	}); err != nil {
		if job.OverallStatus == model.JobStatusPending {
			d.finish(job, fmt.Sprintf("dispatch aborted: %v", err))
		}
		return job
	}

	d.finish(job, "")
	return job
}

// printAll runs on the queue worker
func (d *Dispatcher) printAll(ctx context.Context, order *model.Order, printers []*model.Printer, job *model.PrintJob) {
	data := escpos.FormatOrder(order, escpos.FormatOptions{
		Brand:          d.config.ReceiptBrand,
		FoldDiacritics: d.config.FoldDiacritics,
	})

	for i, printer := range printers {
		result := d.printOne(ctx, printer, data)
		job.Results = append(job.Results, result)

		printerLogger := utils.NewPrinterLogger(d.logger, printer.ID.String(), printer.Name,
			fmt.Sprintf("%s:%d", printer.LocalIP, printer.Port))
		var printErr error
		if !result.Success {
			printErr = errors.New(result.Error)
		}
		printerLogger.LogPrint(order.ID, time.Duration(result.DurationMS)*time.Millisecond, result.Success, printErr)

		// Let the printer's controller recycle its listener before the
		// next session
		if i < len(printers)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(d.config.DelayAfterDisconnect):
			}
		}
	}
}

// printOne runs the connect, send, disconnect cycle for a single printer
func (d *Dispatcher) printOne(ctx context.Context, printer *model.Printer, data []byte) model.PrinterResult {
	result := model.PrinterResult{
		PrinterID:   printer.ID,
		PrinterName: printer.Name,
	}
	started := time.Now()
	defer func() {
		result.DurationMS = time.Since(started).Milliseconds()
	}()

	connectionID, err := d.transport.Connect(ctx, printer.LocalIP, printer.Port, d.config.ConnectTimeout)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	// Whatever happens next the session must not leak
	defer d.transport.Disconnect(connectionID)

	if err := d.transport.Send(ctx, connectionID, data); err != nil {
		result.Error = err.Error()
		return result
	}

	// Give the print buffer time to drain before the half-close
	if d.config.SettleDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(d.config.SettleDelay):
		}
	}

	result.Success = true
	return result
}

// finish derives the overall status from the per-printer results
func (d *Dispatcher) finish(job *model.PrintJob, message string) {
	now := time.Now()
	job.CompletedAt = &now

	if message != "" {
		job.OverallStatus = model.JobStatusFailed
		job.Message = message
		return
	}

	succeeded := 0
	for _, r := range job.Results {
		if r.Success {
			succeeded++
		}
	}
	switch {
	case succeeded == len(job.Results):
		job.OverallStatus = model.JobStatusSuccess
		job.Message = fmt.Sprintf("printed on %d printer(s)", succeeded)
	case succeeded > 0:
		job.OverallStatus = model.JobStatusPartialSuccess
		job.Message = fmt.Sprintf("printed on %d of %d printers, failed: %s",
			succeeded, len(job.Results), strings.Join(job.FailedPrinterNames(), ", "))
	default:
		job.OverallStatus = model.JobStatusFailed
		job.Message = fmt.Sprintf("printing failed on: %s",
			strings.Join(job.FailedPrinterNames(), ", "))
	}
}
