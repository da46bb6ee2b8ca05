package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds message topics to handlers.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	cfg           config.Worker
	enabled       bool
	registrations map[string]messaging.Handler
	processed     metric.Int64Counter
	duration      metric.Float64Histogram
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
}

// NewEngine constructs the worker Engine. Registrations without a topic or a
// handler are ignored; a later registration for the same topic wins.
func NewEngine(p Params) (*Engine, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		if _, dup := reg[r.Topic]; dup {
			logger.Warn("replacing worker handler", zap.String("topic", r.Topic))
		}
		reg[r.Topic] = r.Handler
	}

	meter := otel.Meter("github.com/Additional-Code/oficina/worker")
	processed, err := meter.Int64Counter("worker.messages.processed",
		metric.WithDescription("Messages handled by the worker engine, by topic and outcome."))
	if err != nil {
		return nil, fmt.Errorf("worker metrics: %w", err)
	}
	duration, err := meter.Float64Histogram("worker.messages.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time spent in worker handlers."))
	if err != nil {
		return nil, fmt.Errorf("worker metrics: %w", err)
	}

	return &Engine{
		client:        p.Client,
		logger:        logger,
		cfg:           p.Config.Messaging.Workers,
		enabled:       p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		registrations: reg,
		processed:     processed,
		duration:      duration,
	}, nil
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(ctx context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.registrations) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.String("topic", e.client.Topic()))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.cfg.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, workerID, msg)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err), zap.Int("worker", workerID))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// dispatch runs the handler registered for msg.Topic under the configured
// timeout. Messages without a handler are acknowledged. A panicking handler
// is reported as an error so the message is not committed.
func (e *Engine) dispatch(ctx context.Context, workerID int, msg messaging.Message) (err error) {
	handler, ok := e.registrations[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		e.record(ctx, msg.Topic, "unhandled", 0)

		return nil
	}

	if e.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.HandlerTimeout)
		defer cancel()
	}

	e.logger.Debug("processing message",
		zap.String("topic", msg.Topic),
		zap.String("event_type", msg.Headers[messaging.HeaderEventType]),
		zap.Int("worker", workerID),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("worker handler panicked", zap.String("topic", msg.Topic), zap.Any("panic", r))
			err = fmt.Errorf("handler panic: %v", r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.record(ctx, msg.Topic, outcome, time.Since(start))
	}()

	return handler(ctx, msg)
}

func (e *Engine) record(ctx context.Context, topic, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("messaging.topic", topic),
		attribute.String("outcome", outcome),
	)
	e.processed.Add(ctx, 1, attrs)
	if elapsed > 0 {
		e.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
