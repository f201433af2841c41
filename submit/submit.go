// Package submit pushes a signed transaction to the network and blocks until
// it reaches a terminal status or a timeout elapses.
//
// Per transaction the protocol is
//
//	Pending -> Executed | Aborted | TimedOut
//
// and nothing is retried: a rejected, aborted or unconfirmed transaction is
// reported to the caller, who decides whether to resubmit.
package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"shuffle.dev/shuffle/txn"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

const instrumentationName = "shuffle.dev/shuffle/submit"

// Client is the network boundary the protocol is defined against.
type Client interface {
	// Submit hands the transaction to the network. An error means the
	// network refused it.
	Submit(ctx context.Context, tx *txn.SignedTransaction) error
	// TransactionStatus returns the current status of a submitted transaction.
	TransactionStatus(ctx context.Context, ref cid.Cid) (txn.Status, error)
}

type options struct {
	timeout      time.Duration
	pollInterval time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	metrics      *instruments
}

// Option configures SubmitAndConfirm.
type Option func(*options)

// WithTimeout bounds the confirmation wait. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPollInterval sets the spacing between status queries.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider overrides the global OpenTelemetry meter provider. The
// instruments are created here, once per Option value.
func WithMeterProvider(mp metric.MeterProvider) Option {
	m := newInstruments(mp.Meter(instrumentationName))
	return func(o *options) { o.metrics = m }
}

// SubmitAndConfirm submits tx and waits for it to execute.
//
// It returns nil once the transaction is executed. Failures are *Error values
// of kind KindSubmissionRejected, KindExecutionFailed or
// KindConfirmationTimeout. Status query errors while waiting are logged and
// polling continues until the timeout. Cancelling ctx ends the wait early with
// ctx's error.
func SubmitAndConfirm(ctx context.Context, client Client, tx *txn.SignedTransaction, opts ...Option) (err error) {
	o := options{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		logger:       zerolog.Nop(),
		tracer:       otel.Tracer(instrumentationName),
		metrics:      globalInstruments(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ref, err := tx.Ref()
	if err != nil {
		return &Error{Kind: KindSubmissionRejected, Cause: err}
	}
	log := o.logger.With().Str("ref", ref.String()).Logger()

	ctx, span := o.tracer.Start(ctx, "submit.SubmitAndConfirm", trace.WithAttributes(
		attribute.String("shuffle.tx.ref", ref.String()),
		attribute.String("shuffle.tx.sender", tx.Raw.Sender.String()),
		attribute.Int64("shuffle.tx.sequence_number", int64(tx.Raw.SequenceNumber)),
	))
	start := time.Now()
	defer func() {
		outcome := outcomeOf(err)
		span.SetAttributes(attribute.String("shuffle.tx.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		o.metrics.record(ctx, outcome, time.Since(start))
	}()

	if err := client.Submit(ctx, tx); err != nil {
		log.Warn().Err(err).Msg("transaction rejected")
		return &Error{Kind: KindSubmissionRejected, Ref: ref.String(), Cause: err}
	}
	log.Debug().Msg("transaction submitted")

	status, err := waitForTerminal(ctx, client, ref, o, log)
	if err != nil {
		return err
	}
	if status.State != txn.Executed {
		log.Warn().Stringer("status", status).Msg("transaction failed")
		return &Error{Kind: KindExecutionFailed, Ref: ref.String(), Status: status}
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("transaction executed")
	return nil
}

func waitForTerminal(ctx context.Context, client Client, ref cid.Cid, o options, log zerolog.Logger) (txn.Status, error) {
	waitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(o.pollInterval), 1)
	var lastErr error
	for {
		// A timeout never fires before the deadline itself.
		if d := limiter.Reserve().Delay(); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-waitCtx.Done():
				t.Stop()
				return txn.Status{}, timeoutOrCancel(ctx, waitCtx, ref, o.timeout, lastErr)
			case <-t.C:
			}
		}
		if waitCtx.Err() != nil {
			return txn.Status{}, timeoutOrCancel(ctx, waitCtx, ref, o.timeout, lastErr)
		}
		status, err := client.TransactionStatus(waitCtx, ref)
		switch {
		case err != nil:
			if waitCtx.Err() != nil {
				return txn.Status{}, timeoutOrCancel(ctx, waitCtx, ref, o.timeout, lastErr)
			}
			lastErr = err
			log.Debug().Err(err).Msg("status query failed")
		case status.Terminal():
			return status, nil
		}
	}
}

func timeoutOrCancel(parent, waitCtx context.Context, ref cid.Cid, timeout time.Duration, lastErr error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if lastErr == nil {
		lastErr = waitCtx.Err()
	}
	return &Error{Kind: KindConfirmationTimeout, Ref: ref.String(), Timeout: timeout, Cause: lastErr}
}

func outcomeOf(err error) string {
	var e *Error
	switch {
	case err == nil:
		return "executed"
	case errors.As(err, &e):
		return string(e.Kind)
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

type instruments struct {
	transactions metric.Int64Counter
	duration     metric.Float64Histogram
}

// globalInstruments is built from the global meter provider, which forwards
// to whatever provider is installed later.
var globalInstruments = sync.OnceValue(func() *instruments {
	return newInstruments(otel.Meter(instrumentationName))
})

func newInstruments(meter metric.Meter) *instruments {
	m := &instruments{}
	var err error
	if m.transactions, err = meter.Int64Counter("shuffle.submit.transactions",
		metric.WithDescription("Transactions submitted, by terminal outcome")); err != nil {
		m.transactions = noop.Int64Counter{}
	}
	if m.duration, err = meter.Float64Histogram("shuffle.submit.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time from submission to terminal outcome")); err != nil {
		m.duration = noop.Float64Histogram{}
	}
	return m
}

func (m *instruments) record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.transactions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
