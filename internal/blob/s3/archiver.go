package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// ArchiveImpl implements domain.Archiver by querying the stores for settled
// records, serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here; that is a separate, explicit step to be executed after
// the archive has been verified.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	markets   domain.MarketStore
	positions domain.PositionStore
	audit     domain.AuditStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer domain.BlobWriter,
	markets domain.MarketStore,
	positions domain.PositionStore,
	audit domain.AuditStore,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		markets:   markets,
		positions: positions,
		audit:     audit,
	}
}

// archivedMarket is one JSONL record: a resolved market together with every
// position that was staked on it, so a single file fully describes the
// settlement.
type archivedMarket struct {
	Market    marketRecord     `json:"market"`
	Positions []positionRecord `json:"positions"`
}

type marketRecord struct {
	ID             uint64    `json:"id"`
	OracleFeed     string    `json:"oracle_feed"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	StartValue     string    `json:"start_value"`
	EndValue       string    `json:"end_value,omitempty"`
	ResolutionTime time.Time `json:"resolution_time"`
	TotalUpPool    uint64    `json:"total_up_pool"`
	TotalDownPool  uint64    `json:"total_down_pool"`
	Outcome        *bool     `json:"outcome"`
	CreatedAt      time.Time `json:"created_at"`
}

type positionRecord struct {
	User       string     `json:"user"`
	Prediction bool       `json:"prediction"`
	Amount     uint64     `json:"amount"`
	Claimed    bool       `json:"claimed"`
	PlacedAt   time.Time  `json:"placed_at"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
}

// ArchiveMarkets uploads every market resolved before the cutoff, with its
// positions, to archive/markets/YYYY-MM.jsonl. The archival is recorded in
// the audit log and the count of archived markets is returned.
func (a *ArchiveImpl) ArchiveMarkets(ctx context.Context, before time.Time) (int64, error) {
	markets, err := a.markets.ListResolvedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive markets query: %w", err)
	}
	if len(markets) == 0 {
		return 0, nil
	}

	records := make([]archivedMarket, 0, len(markets))
	for _, m := range markets {
		positions, err := a.positions.ListByMarket(ctx, m.ID)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive markets positions for %d: %w", m.ID, err)
		}
		records = append(records, toArchivedMarket(m, positions))
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive markets marshal: %w", err)
	}

	path := archivePath("markets", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive markets upload: %w", err)
	}

	count := int64(len(records))

	if err := a.audit.Log(ctx, "archive.markets", map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive markets audit log: %w", err)
	}

	return count, nil
}

// ArchiveAudit uploads every audit entry created before the cutoff to
// archive/audit/YYYY-MM.jsonl and returns the count of archived entries.
func (a *ArchiveImpl) ArchiveAudit(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.audit.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit marshal: %w", err)
	}

	path := archivePath("audit", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive audit upload: %w", err)
	}

	count := int64(len(entries))

	if err := a.audit.Log(ctx, "archive.audit", map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive audit log: %w", err)
	}

	return count, nil
}

func toArchivedMarket(m domain.Market, positions []domain.Position) archivedMarket {
	rec := archivedMarket{
		Market: marketRecord{
			ID:             m.ID,
			OracleFeed:     m.OracleFeed,
			Description:    m.Description,
			Category:       m.Category,
			ResolutionTime: m.ResolutionTime,
			TotalUpPool:    m.TotalUpPool,
			TotalDownPool:  m.TotalDownPool,
			Outcome:        m.Outcome,
			CreatedAt:      m.CreatedAt,
		},
		Positions: make([]positionRecord, 0, len(positions)),
	}
	if m.StartValue != nil {
		rec.Market.StartValue = m.StartValue.String()
	}
	if m.EndValue != nil {
		rec.Market.EndValue = m.EndValue.String()
	}
	for _, p := range positions {
		rec.Positions = append(rec.Positions, positionRecord{
			User:       p.User,
			Prediction: p.Prediction,
			Amount:     p.Amount,
			Claimed:    p.Claimed,
			PlacedAt:   p.PlacedAt,
			ClaimedAt:  p.ClaimedAt,
		})
	}
	return rec
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/markets/2025-01.jsonl
//	archive/audit/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
