// Package worker runs background consumers over the message bus.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds a topic to its handler. Handlers join the
// engine through the "worker.handlers" value group.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.Start,
			OnStop:  engine.Stop,
		})
	}),
)

// Params collects the engine dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine fans messages out to the registered topic handlers.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	cfg      config.Messaging
	handlers map[string]messaging.Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine indexes the registered handlers by topic.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic != "" && r.Handler != nil {
			handlers[r.Topic] = r.Handler
		}
	}
	return &Engine{
		client:   p.Client,
		logger:   p.Logger,
		cfg:      p.Config.Messaging,
		handlers: handlers,
	}
}

// Start launches the configured number of consumer goroutines. It is a
// no-op when messaging or workers are disabled, or nothing registered.
func (e *Engine) Start(context.Context) error {
	if !e.cfg.Enabled || !e.cfg.Workers.Enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("no worker handlers registered")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	n := e.cfg.Workers.Concurrency
	for i := 0; i < n; i++ {
		e.wg.Add(1)
		go func(id int) {
			defer e.wg.Done()
			e.consume(runCtx, id)
		}(i)
	}

	e.logger.Info("worker engine started", zap.Int("workers", n))
	return nil
}

// Stop cancels the consumers and waits for them, bounded by ctx.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) consume(ctx context.Context, id int) {
	backoff := time.Second
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, id, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Int("worker", id), zap.Error(err))

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

func (e *Engine) dispatch(ctx context.Context, id int, msg messaging.Message) error {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}
	e.logger.Debug("processing message",
		zap.String("topic", msg.Topic),
		zap.Int("worker", id),
	)
	return handler(ctx, msg)
}
