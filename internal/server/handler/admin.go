package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// AdminService defines what the admin handler needs from the service layer.
type AdminService interface {
	Initialize(ctx context.Context, authority, treasury string, feeBps uint16) (domain.ArenaState, error)
	UpdateFee(ctx context.Context, caller string, newFeeBps uint16) (domain.ArenaState, error)
	TransferAuthority(ctx context.Context, caller, newAuthority string) (domain.ArenaState, error)
	GetState(ctx context.Context) (domain.ArenaState, error)
}

// AdminHandler serves arena governance endpoints.
type AdminHandler struct {
	admin    AdminService
	archiver domain.Archiver // nil when archival is not configured
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin AdminService, archiver domain.Archiver, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, archiver: archiver, logger: logger}
}

type initializeRequest struct {
	Authority string `json:"authority"`
	Treasury  string `json:"treasury"`
	FeeBps    uint16 `json:"fee_bps"`
}

// Initialize creates the arena singleton.
// POST /api/admin/initialize
func (h *AdminHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if id := identity(r, req.Authority); id != "" {
		req.Authority = id
	}

	state, err := h.admin.Initialize(r.Context(), req.Authority, req.Treasury, req.FeeBps)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: initialize failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toArenaJSON(state))
}

// GetState returns the arena configuration and counters.
// GET /api/admin/state
func (h *AdminHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.admin.GetState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArenaJSON(state))
}

type updateFeeRequest struct {
	Caller string `json:"caller,omitempty"`
	FeeBps uint16 `json:"fee_bps"`
}

// UpdateFee changes the protocol fee. Authority only.
// POST /api/admin/fee
func (h *AdminHandler) UpdateFee(w http.ResponseWriter, r *http.Request) {
	var req updateFeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	caller := identity(r, req.Caller)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	state, err := h.admin.UpdateFee(r.Context(), caller, req.FeeBps)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: update fee failed",
			slog.String("caller", caller),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArenaJSON(state))
}

type transferAuthorityRequest struct {
	Caller       string `json:"caller,omitempty"`
	NewAuthority string `json:"new_authority"`
}

// TransferAuthority hands arena governance to a new identity. Authority only.
// POST /api/admin/authority
func (h *AdminHandler) TransferAuthority(w http.ResponseWriter, r *http.Request) {
	var req transferAuthorityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	caller := identity(r, req.Caller)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller")
		return
	}

	state, err := h.admin.TransferAuthority(r.Context(), caller, req.NewAuthority)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: transfer authority failed",
			slog.String("caller", caller),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArenaJSON(state))
}

type archiveRequest struct {
	Caller string    `json:"caller,omitempty"`
	Before time.Time `json:"before"`
}

// Archive copies resolved markets and old audit entries to cold storage.
// Authority only, enforced against the current arena state.
// POST /api/admin/archive
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusNotImplemented, "archival storage is not configured")
		return
	}

	var req archiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	caller := identity(r, req.Caller)
	state, err := h.admin.GetState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if caller == "" || caller != state.Authority {
		writeDomainError(w, domain.ErrUnauthorized)
		return
	}

	before := req.Before
	if before.IsZero() {
		before = time.Now().UTC()
	}

	markets, err := h.archiver.ArchiveMarkets(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive markets failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	audit, err := h.archiver.ArchiveAudit(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive audit failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"markets_archived": markets,
		"audit_archived":   audit,
		"before":           before.Format(time.RFC3339),
	})
}
