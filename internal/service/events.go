// Package service implements the arena's accounting core: ledger,
// market lifecycle, betting pool, and settlement operations. All state
// transitions are short, synchronous, and validated before any mutation;
// per-record locks and the store transactor supply serialization and
// atomicity.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// lockTTL bounds how long a per-record lock can be held if a process dies
// mid-operation. Operations are short; 10s is generous.
const lockTTL = 10 * time.Second

// emitter publishes typed events to the signal bus (channel + durable
// stream) and mirrors them into the audit log. Emission is best-effort:
// failures are logged, never propagated, since the state change has already
// committed.
type emitter struct {
	bus    domain.SignalBus
	audit  domain.AuditStore
	logger *slog.Logger
}

func newEmitter(bus domain.SignalBus, audit domain.AuditStore, logger *slog.Logger) *emitter {
	return &emitter{bus: bus, audit: audit, logger: logger}
}

func (e *emitter) emit(ctx context.Context, event string, payload any) {
	data, err := json.Marshal(domain.Envelope{Event: event, Payload: payload})
	if err != nil {
		e.logger.ErrorContext(ctx, "emitter: marshal event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	if e.bus != nil {
		if err := e.bus.Publish(ctx, domain.EventChannel, data); err != nil {
			e.logger.WarnContext(ctx, "emitter: publish failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
		if err := e.bus.StreamAppend(ctx, domain.EventStream, data); err != nil {
			e.logger.WarnContext(ctx, "emitter: stream append failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}

	if e.audit != nil {
		var detail map[string]any
		if raw, err := json.Marshal(payload); err == nil {
			_ = json.Unmarshal(raw, &detail)
		}
		if err := e.audit.Log(ctx, event, detail); err != nil {
			e.logger.WarnContext(ctx, "emitter: audit log failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Lock key helpers. Every mutable record type has its own namespace.
func arenaLockKey() string              { return "arena" }
func accountLockKey(user string) string { return "account:" + user }
func marketLockKey(id uint64) string    { return "market:" + strconv.FormatUint(id, 10) }
func positionLockKey(user string, id uint64) string {
	return "position:" + user + ":" + strconv.FormatUint(id, 10)
}
