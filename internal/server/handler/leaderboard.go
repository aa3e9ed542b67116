package handler

import (
	"log/slog"
	"net/http"

	"github.com/feedgod/arena/internal/domain"
)

// LeaderboardHandler serves ranking endpoints off the Redis sorted sets.
type LeaderboardHandler struct {
	board  domain.Leaderboard
	logger *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(board domain.Leaderboard, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, logger: logger}
}

type leaderboardEntryJSON struct {
	Rank  int    `json:"rank"`
	User  string `json:"user"`
	Score uint64 `json:"score"`
}

// Leaderboard returns the top users ranked by lifetime winnings, or by
// current streak when by=streak.
// GET /api/leaderboard?by=winnings&limit=10
func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var (
		entries []domain.LeaderboardEntry
		err     error
	)
	switch by := r.URL.Query().Get("by"); by {
	case "", "winnings":
		entries, err = h.board.TopByWinnings(r.Context(), opts.Limit)
	case "streak":
		entries, err = h.board.TopByStreak(r.Context(), opts.Limit)
	default:
		writeError(w, http.StatusBadRequest, "by must be winnings or streak")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: leaderboard failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	out := make([]leaderboardEntryJSON, 0, len(entries))
	for i, e := range entries {
		out = append(out, leaderboardEntryJSON{
			Rank:  i + 1,
			User:  e.User,
			Score: e.Score,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}
