package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"khata/internal/core/id"
	"khata/internal/domain/ledger"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// CorrectionEntry is a single row on the correction audit trail. Reversed
// payments are removed from the ledger but never from this trail.
type CorrectionEntry struct {
	ID                id.ID           `db:"id"`
	ObligationID      id.ID           `db:"obligation_id"`
	EventID           id.ID           `db:"event_id"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// CorrectionAudit persists the removed payment event of every reversal.
// Implements ledger.CorrectionAuditor.
type CorrectionAudit struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

var _ ledger.CorrectionAuditor = (*CorrectionAudit)(nil)

// NewCorrectionAudit creates the correction audit trail.
func NewCorrectionAudit(txm *TxManager) (*CorrectionAudit, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &CorrectionAudit{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// PaymentReversed records the removed event on the trail.
func (a *CorrectionAudit) PaymentReversed(ctx context.Context, obligationID id.ID, removed ledger.PaymentEvent) error {
	payload, err := json.Marshal(removed)
	if err != nil {
		return fmt.Errorf("marshal removed event: %w", err)
	}

	entry := CorrectionEntry{
		ID:              id.New(),
		ObligationID:    obligationID,
		EventID:         removed.ID,
		Payload:         payload,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if len(payload) > a.compressThreshold {
		entry.PayloadCompressed = a.encoder.EncodeAll(payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO ledger_corrections (
			id, obligation_id, event_id,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = a.txm.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.ObligationID, entry.EventID,
		entry.Payload, entry.PayloadCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	return err
}

// History retrieves the correction trail for an obligation, newest first.
func (a *CorrectionAudit) History(ctx context.Context, obligationID id.ID, limit int) ([]CorrectionEntry, error) {
	sql := `
		SELECT id, obligation_id, event_id,
		       payload, payload_compressed, compression_algo, created_at
		FROM ledger_corrections
		WHERE obligation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := a.txm.GetQuerier(ctx).Query(ctx, sql, obligationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query corrections: %w", err)
	}
	defer rows.Close()

	var entries []CorrectionEntry
	for rows.Next() {
		var e CorrectionEntry
		err := rows.Scan(
			&e.ID, &e.ObligationID, &e.EventID,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
			decompressed, err := a.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			e.Payload = decompressed
			e.PayloadCompressed = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
