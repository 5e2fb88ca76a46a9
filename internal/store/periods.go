package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"regwatch/internal/period"
)

// UpsertOutcome reports whether an upsert created or refreshed a record.
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

const periodColumns = `p.document_id, p.docket_id, p.title, p.agency_id, p.agency_name,
    p.document_type, p.posted_date, p.comment_start_date, p.comment_end_date,
    p.abstract, p.summary, p.keywords, p.comment_url, p.detail_url,
    p.federal_register_url, p.topics, p.created_at, p.updated_at,
    EXISTS(SELECT 1 FROM delivery_receipts r WHERE r.document_id = p.document_id AND r.stage = 'new'),
    EXISTS(SELECT 1 FROM delivery_receipts r WHERE r.document_id = p.document_id AND r.stage = 'reminder_7d'),
    EXISTS(SELECT 1 FROM delivery_receipts r WHERE r.document_id = p.document_id AND r.stage = 'reminder_3d'),
    EXISTS(SELECT 1 FROM delivery_receipts r WHERE r.document_id = p.document_id AND r.stage = 'last_day')`

// Upsert inserts or refreshes a comment period keyed by document identifier.
// Descriptive fields are last-write-wins; topics union monotonically and
// free-text fields are only replaced by non-empty values, so a sparse
// re-scrape cannot erase earlier enrichment. Safe to call repeatedly with
// identical input.
func (s *Store) Upsert(ctx context.Context, p *period.CommentPeriod) (UpsertOutcome, error) {
	if p == nil {
		return "", errors.New("period is nil")
	}
	if p.DocumentID == "" {
		return "", errors.New("document id required")
	}
	if p.CommentEnd.IsZero() {
		return "", errors.New("comment end date required")
	}
	if err := p.ValidateWindow(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidWindow, p.DocumentID, err)
	}

	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	var outcome UpsertOutcome
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin upsert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var existingTopics string
		row := tx.QueryRowContext(ctx,
			`SELECT topics FROM comment_periods WHERE document_id = ?`, p.DocumentID)
		switch err := row.Scan(&existingTopics); {
		case errors.Is(err, sql.ErrNoRows):
			outcome = OutcomeCreated
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO comment_periods (
                    document_id, docket_id, title, agency_id, agency_name,
                    document_type, posted_date, comment_start_date, comment_end_date,
                    abstract, summary, keywords, comment_url, detail_url,
                    federal_register_url, topics, created_at, updated_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.DocumentID, p.DocketID, p.Title, p.AgencyID, p.AgencyName,
				p.DocumentType, formatDate(p.PostedDate), nullableDate(p.CommentStart), formatDate(p.CommentEnd),
				p.Abstract, p.Summary, p.Keywords, p.CommentURL, p.DetailURL,
				p.FederalRegisterURL, encodeTopics(p.Topics), timestamp, timestamp,
			); err != nil {
				return fmt.Errorf("insert period: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lookup period: %w", err)
		default:
			outcome = OutcomeUpdated
			merged := mergeTopicSets(decodeTopics(existingTopics), p.Topics)
			if _, err := tx.ExecContext(ctx,
				`UPDATE comment_periods SET
                    docket_id = ?, title = ?, agency_id = ?, agency_name = ?,
                    document_type = ?, posted_date = ?, comment_start_date = ?, comment_end_date = ?,
                    abstract = CASE WHEN ? != '' THEN ? ELSE abstract END,
                    summary = CASE WHEN ? != '' THEN ? ELSE summary END,
                    keywords = CASE WHEN ? != '' THEN ? ELSE keywords END,
                    comment_url = ?, detail_url = ?,
                    federal_register_url = CASE WHEN ? != '' THEN ? ELSE federal_register_url END,
                    topics = ?, updated_at = ?
                 WHERE document_id = ?`,
				p.DocketID, p.Title, p.AgencyID, p.AgencyName,
				p.DocumentType, formatDate(p.PostedDate), nullableDate(p.CommentStart), formatDate(p.CommentEnd),
				p.Abstract, p.Abstract,
				p.Summary, p.Summary,
				p.Keywords, p.Keywords,
				p.CommentURL, p.DetailURL,
				p.FederalRegisterURL, p.FederalRegisterURL,
				encodeTopics(merged), timestamp,
				p.DocumentID,
			); err != nil {
				return fmt.Errorf("update period: %w", err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// Get fetches a comment period by document identifier.
func (s *Store) Get(ctx context.Context, documentID string) (*period.CommentPeriod, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+periodColumns+` FROM comment_periods p WHERE p.document_id = ?`, documentID)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	return p, nil
}

// FindDue returns comment periods whose stage obligation is outstanding as
// of the given day: no delivery receipt exists and the stage trigger holds.
// Reminder stages match their exact offset day; the "new" stage matches any
// still-open period first seen within the announce window. Ordering is
// deterministic: comment deadline ascending, document identifier tiebreak.
func (s *Store) FindDue(ctx context.Context, stage period.Stage, asOf time.Time) ([]*period.CommentPeriod, error) {
	ctx = ensureContext(ctx)

	base := `SELECT ` + periodColumns + ` FROM comment_periods p
        WHERE NOT EXISTS (
            SELECT 1 FROM delivery_receipts r
            WHERE r.document_id = p.document_id AND r.stage = ?
        )`
	order := ` ORDER BY p.comment_end_date ASC, p.document_id ASC`

	var (
		query string
		args  []any
	)
	if offset, dayBound := stage.ReminderOffsetDays(); dayBound {
		target := asOf.AddDate(0, 0, offset)
		query = base + ` AND p.comment_end_date = ?` + order
		args = []any{string(stage), formatDate(target)}
	} else {
		cutoff := asOf.AddDate(0, 0, -s.newAnnounceDays)
		query = base + ` AND p.comment_end_date >= ? AND p.posted_date >= ?` + order
		args = []any{string(stage), formatDate(asOf), formatDate(cutoff)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find due %s: %w", stage, err)
	}
	defer rows.Close()
	return collectPeriods(rows)
}

// OpenFilter narrows QueryOpen results.
type OpenFilter struct {
	AsOf     time.Time
	Topic    period.Topic
	AgencyID string
	// SortBy is "deadline" (default) or "posted".
	SortBy string
	Limit  int
}

// QueryOpen returns periods whose comment window is still open on the
// filter's as-of day, optionally narrowed by topic or agency.
func (s *Store) QueryOpen(ctx context.Context, filter OpenFilter) ([]*period.CommentPeriod, error) {
	ctx = ensureContext(ctx)
	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	qb := sq.Select(periodColumns).
		From("comment_periods AS p").
		Where(sq.GtOrEq{"p.comment_end_date": formatDate(asOf)})

	if filter.AgencyID != "" {
		qb = qb.Where(sq.Eq{"p.agency_id": filter.AgencyID})
	}
	if filter.Topic != "" {
		qb = qb.Where(sq.Like{"p.topics": `%"` + string(filter.Topic) + `"%`})
	}

	switch filter.SortBy {
	case "", "deadline":
		qb = qb.OrderBy("p.comment_end_date ASC", "p.document_id ASC")
	case "posted":
		qb = qb.OrderBy("p.posted_date DESC", "p.document_id ASC")
	default:
		return nil, fmt.Errorf("unknown sort key %q", filter.SortBy)
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query open periods: %w", err)
	}
	defer rows.Close()
	return collectPeriods(rows)
}

// Stats summarizes stored state for the stats command and site output.
type Stats struct {
	TotalPeriods     int
	OpenPeriods      int
	AnnouncedPeriods int
	TotalReceipts    int
}

// GetStats returns aggregate counts as of the given day.
func (s *Store) GetStats(ctx context.Context, asOf time.Time) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats

	queries := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.TotalPeriods, `SELECT COUNT(*) FROM comment_periods`, nil},
		{&stats.OpenPeriods, `SELECT COUNT(*) FROM comment_periods WHERE comment_end_date >= ?`, []any{formatDate(asOf)}},
		{&stats.AnnouncedPeriods, `SELECT COUNT(DISTINCT document_id) FROM delivery_receipts WHERE stage = 'new'`, nil},
		{&stats.TotalReceipts, `SELECT COUNT(*) FROM delivery_receipts`, nil},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("collect stats: %w", err)
		}
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*period.CommentPeriod, error) {
	var (
		p          period.CommentPeriod
		postedDate string
		startDate  sql.NullString
		endDate    string
		topicsJSON string
		createdAt  string
		updatedAt  string
		deliveries [4]bool
	)
	if err := row.Scan(
		&p.DocumentID, &p.DocketID, &p.Title, &p.AgencyID, &p.AgencyName,
		&p.DocumentType, &postedDate, &startDate, &endDate,
		&p.Abstract, &p.Summary, &p.Keywords, &p.CommentURL, &p.DetailURL,
		&p.FederalRegisterURL, &topicsJSON, &createdAt, &updatedAt,
		&deliveries[0], &deliveries[1], &deliveries[2], &deliveries[3],
	); err != nil {
		return nil, err
	}

	p.PostedDate = parseDate(postedDate)
	if startDate.Valid && startDate.String != "" {
		start := parseDate(startDate.String)
		p.CommentStart = &start
	}
	p.CommentEnd = parseDate(endDate)
	p.Topics = decodeTopics(topicsJSON)
	p.CreatedAt = parseTimestamp(createdAt)
	p.UpdatedAt = parseTimestamp(updatedAt)
	p.Delivered = map[period.Stage]bool{
		period.StageNew:        deliveries[0],
		period.StageReminder7d: deliveries[1],
		period.StageReminder3d: deliveries[2],
		period.StageLastDay:    deliveries[3],
	}
	return &p, nil
}

func collectPeriods(rows *sql.Rows) ([]*period.CommentPeriod, error) {
	var periods []*period.CommentPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return periods, nil
}

func encodeTopics(topics []period.Topic) string {
	if len(topics) == 0 {
		return "[]"
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = string(t)
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeTopics(raw string) []period.Topic {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil
	}
	topics := make([]period.Topic, 0, len(names))
	for _, name := range names {
		if t, ok := period.ParseTopic(name); ok {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil
	}
	return topics
}

func mergeTopicSets(existing, incoming []period.Topic) []period.Topic {
	p := period.CommentPeriod{Topics: existing}
	p.MergeTopics(incoming)
	return p.Topics
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func nullableDate(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.DateOnly)
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
