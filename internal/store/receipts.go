package store

import (
	"context"
	"fmt"
	"time"

	"regwatch/internal/period"
)

// Receipt is one row of the append-only delivery log. Receipts are never
// updated or deleted; they are the audit trail for the notification ratchet.
type Receipt struct {
	ID             int64
	DocumentID     string
	Stage          period.Stage
	ExternalPostID string
	DeliveredAt    time.Time
}

// RecordDelivery appends a delivery receipt for (documentID, stage). The
// UNIQUE constraint on the receipt table makes the insert the single atomic
// ratchet operation: the derived delivered view flips with it. A duplicate
// attempt fails with ErrAlreadyDelivered and leaves exactly one receipt.
func (s *Store) RecordDelivery(ctx context.Context, documentID string, stage period.Stage, externalPostID string) error {
	if documentID == "" {
		return fmt.Errorf("document id required")
	}
	if _, ok := period.ParseStage(string(stage)); !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}

	now := time.Now().UTC()
	_, err := s.execWithRetry(ensureContext(ctx),
		`INSERT INTO delivery_receipts (document_id, stage, external_post_id, delivered_at)
         VALUES (?, ?, ?, ?)`,
		documentID, string(stage), externalPostID, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyDelivered, documentID, stage)
		}
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Receipts returns the delivery log for one document, oldest first.
func (s *Store) Receipts(ctx context.Context, documentID string) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, document_id, stage, external_post_id, delivered_at
         FROM delivery_receipts WHERE document_id = ? ORDER BY id ASC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var (
			r           Receipt
			stage       string
			deliveredAt string
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &stage, &r.ExternalPostID, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		r.Stage = period.Stage(stage)
		r.DeliveredAt = parseTimestamp(deliveredAt)
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}
