package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"escrowchain/core/events"
	"escrowchain/core/state"
	"escrowchain/crypto"
	"escrowchain/native/common"
	"escrowchain/observability"
	telemetry "escrowchain/observability/otel"
	"escrowchain/storage"
)

// ErrCommit wraps failures to persist an otherwise successful operation.
var ErrCommit = errors.New("core: commit failed")

// Call identifies one operation for guards, logs, metrics and traces.
type Call struct {
	Module string
	Method string
	Caller [20]byte
}

// Node hosts every program instance. It serialises operations, gives each a
// fresh overlay over the database and commits the overlay only when the
// operation succeeds. Events are held back until the commit lands.
type Node struct {
	db      storage.Database
	mu      sync.Mutex
	clock   Clock
	emitter events.Emitter
	pauses  common.PauseView
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewNode creates a node over db using the wall clock.
func NewNode(db storage.Database) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	return &Node{
		db:      db,
		clock:   NewMonotonicClock(),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		tracer:  telemetry.Tracer(),
	}, nil
}

// SetClock overrides the ledger time source.
func (n *Node) SetClock(clock Clock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if clock == nil {
		clock = NewMonotonicClock()
	}
	n.clock = clock
}

// SetEmitter configures where committed events are delivered. Passing nil
// resets the emitter to a no-op implementation.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	n.emitter = emitter
}

// SetPauses installs the module pause policy.
func (n *Node) SetPauses(pauses common.PauseView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pauses = pauses
}

// SetLogger overrides the structured logger.
func (n *Node) SetLogger(logger *slog.Logger) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// Now returns the current ledger time.
func (n *Node) Now() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clock.Now()
}

// Execute runs fn as one atomic operation on behalf of call.Caller. Engines
// obtained from the Tx only act for the caller. When fn fails nothing it
// wrote is persisted and none of its events are delivered.
func (n *Node) Execute(ctx context.Context, call Call, fn func(*Tx) error) error {
	if fn == nil {
		return fmt.Errorf("core: operation required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	module := strings.ToLower(strings.TrimSpace(call.Module))

	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	_, span := n.tracer.Start(ctx, module+"."+call.Method, trace.WithAttributes(
		attribute.String("escrow.module", module),
		attribute.String("escrow.method", call.Method),
		attribute.String("escrow.caller", crypto.FormatAccount(call.Caller)),
	))
	defer span.End()

	err := n.execute(module, call.Caller, fn)
	n.finish(span, call, module, start, err)
	return err
}

func (n *Node) execute(module string, caller [20]byte, fn func(*Tx) error) error {
	if err := common.Guard(n.pauses, module); err != nil {
		return err
	}
	manager := state.NewManager(n.db)
	buffer := new(events.Buffer)
	tx := newTx(manager, buffer, common.CallerAuth{Caller: caller}, caller, n.clock.Now())

	if err := fn(tx); err != nil {
		manager.Discard()
		buffer.Discard()
		return err
	}
	if err := manager.Commit(); err != nil {
		buffer.Discard()
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	n.deliver(buffer)
	return nil
}

func (n *Node) deliver(buffer *events.Buffer) {
	pending := buffer.Events()
	buffer.Flush(n.emitter)
	metrics := observability.Events()
	for _, evt := range pending {
		metrics.RecordEmitted(evt.EventType())
	}
}

func (n *Node) finish(span trace.Span, call Call, module string, start time.Time, err error) {
	elapsed := time.Since(start)
	result := "ok"
	if err != nil {
		result = common.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	span.SetAttributes(attribute.String("escrow.result", result))
	observability.Programs().RecordOperation(module, call.Method, result, elapsed)

	attrs := []any{
		slog.String("module", module),
		slog.String("method", call.Method),
		slog.String("caller", crypto.FormatAccount(call.Caller)),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		n.logger.Warn("operation rejected", append(attrs, slog.String("kind", result), slog.Any("error", err))...)
		return
	}
	n.logger.Info("operation committed", attrs...)
}

// View runs read-only queries against a throwaway overlay. Nothing fn writes
// is persisted and no events escape.
func (n *Node) View(ctx context.Context, fn func(*Tx) error) error {
	if fn == nil {
		return fmt.Errorf("core: query required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	manager := state.NewManager(n.db)
	defer manager.Discard()
	tx := newTx(manager, events.NoopEmitter{}, common.DenyAll{}, [20]byte{}, n.clock.Now())
	return fn(tx)
}
