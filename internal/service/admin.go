package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// AdminService performs the one-time arena initialization and the
// authority-gated configuration mutations.
type AdminService struct {
	arenas domain.ArenaStore
	tx     domain.Transactor
	locks  domain.LockManager
	events *emitter
	logger *slog.Logger
	now    func() time.Time
}

// NewAdminService creates an AdminService with all required dependencies.
func NewAdminService(
	arenas domain.ArenaStore,
	tx domain.Transactor,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		arenas: arenas,
		tx:     tx,
		locks:  locks,
		events: newEmitter(bus, audit, logger),
		logger: logger.With(slog.String("component", "admin")),
		now:    time.Now,
	}
}

// Initialize creates the singleton arena state. It is called exactly once
// at deployment; a second call fails with ErrAlreadyExists.
func (s *AdminService) Initialize(ctx context.Context, authority, treasury string, feeBps uint16) (domain.ArenaState, error) {
	if feeBps > domain.MaxFeeBps {
		return domain.ArenaState{}, domain.ErrInvalidFeeBps
	}
	if treasury == "" {
		return domain.ArenaState{}, domain.ErrInvalidTreasury
	}
	if authority == "" {
		return domain.ArenaState{}, domain.ErrUnauthorized
	}

	unlock, err := s.locks.Acquire(ctx, arenaLockKey(), lockTTL)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: lock arena: %w", err)
	}
	defer unlock()

	now := s.now().UTC()
	state := domain.ArenaState{
		Authority:     authority,
		Treasury:      treasury,
		FeeBps:        feeBps,
		InitializedAt: now,
		UpdatedAt:     now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.arenas.Create(ctx, state)
	})
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: initialize: %w", err)
	}

	s.events.emit(ctx, domain.EventInitialized, domain.InitializedEvent{
		Authority: authority,
		Treasury:  treasury,
		FeeBps:    feeBps,
	})
	s.logger.InfoContext(ctx, "arena initialized",
		slog.String("authority", authority),
		slog.String("treasury", treasury),
		slog.Int("fee_bps", int(feeBps)),
	)

	return state, nil
}

// UpdateFee replaces the protocol fee rate. The new rate applies to every
// claim processed after the update, regardless of when the market resolved.
func (s *AdminService) UpdateFee(ctx context.Context, caller string, newFeeBps uint16) (domain.ArenaState, error) {
	unlock, err := s.locks.Acquire(ctx, arenaLockKey(), lockTTL)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: lock arena: %w", err)
	}
	defer unlock()

	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: get arena state: %w", err)
	}
	if caller != arena.Authority {
		return domain.ArenaState{}, domain.ErrUnauthorized
	}
	if newFeeBps > domain.MaxFeeBps {
		return domain.ArenaState{}, domain.ErrInvalidFeeBps
	}

	oldFee := arena.FeeBps
	arena.FeeBps = newFeeBps
	arena.UpdatedAt = s.now().UTC()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.arenas.Update(ctx, arena)
	})
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: update fee: %w", err)
	}

	s.events.emit(ctx, domain.EventFeeUpdated, domain.FeeUpdatedEvent{
		OldFeeBps: oldFee,
		NewFeeBps: newFeeBps,
	})
	s.logger.InfoContext(ctx, "protocol fee updated",
		slog.Int("old_fee_bps", int(oldFee)),
		slog.Int("new_fee_bps", int(newFeeBps)),
	)

	return arena, nil
}

// TransferAuthority replaces the administrative identity unconditionally.
// There is no acceptance handshake; a typo in the new identity permanently
// locks out administration.
func (s *AdminService) TransferAuthority(ctx context.Context, caller, newAuthority string) (domain.ArenaState, error) {
	if newAuthority == "" {
		return domain.ArenaState{}, domain.ErrUnauthorized
	}

	unlock, err := s.locks.Acquire(ctx, arenaLockKey(), lockTTL)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: lock arena: %w", err)
	}
	defer unlock()

	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: get arena state: %w", err)
	}
	if caller != arena.Authority {
		return domain.ArenaState{}, domain.ErrUnauthorized
	}

	oldAuthority := arena.Authority
	arena.Authority = newAuthority
	arena.UpdatedAt = s.now().UTC()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.arenas.Update(ctx, arena)
	})
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: transfer authority: %w", err)
	}

	s.events.emit(ctx, domain.EventAuthorityTransferred, domain.AuthorityTransferredEvent{
		OldAuthority: oldAuthority,
		NewAuthority: newAuthority,
	})
	s.logger.InfoContext(ctx, "authority transferred",
		slog.String("old_authority", oldAuthority),
		slog.String("new_authority", newAuthority),
	)

	return arena, nil
}

// GetState returns the arena singleton.
func (s *AdminService) GetState(ctx context.Context) (domain.ArenaState, error) {
	arena, err := s.arenas.Get(ctx)
	if err != nil {
		return domain.ArenaState{}, fmt.Errorf("admin: get arena state: %w", err)
	}
	return arena, nil
}
