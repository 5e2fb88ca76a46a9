package period

import (
	"fmt"
	"sort"
	"time"
)

// CommentURLBase is the deterministic comment form prefix on regulations.gov.
const CommentURLBase = "https://www.regulations.gov/commenton/"

// DetailURLBase is the deterministic document detail prefix on regulations.gov.
const DetailURLBase = "https://www.regulations.gov/document/"

// CommentPeriod is the canonical record for a regulatory document that is
// (or was) open for public comment.
type CommentPeriod struct {
	DocumentID   string
	DocketID     string
	Title        string
	AgencyID     string
	AgencyName   string
	DocumentType string

	PostedDate   time.Time
	CommentStart *time.Time
	CommentEnd   time.Time

	Abstract string
	Summary  string
	Keywords string

	CommentURL         string
	DetailURL          string
	FederalRegisterURL string

	Topics []Topic

	// Delivered is the boolean view derived from delivery receipts; the
	// receipt table is authoritative.
	Delivered map[Stage]bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentURLFor builds the canonical comment link for a document identifier.
func CommentURLFor(documentID string) string {
	return CommentURLBase + documentID
}

// DetailURLFor builds the canonical detail link for a document identifier.
func DetailURLFor(documentID string) string {
	return DetailURLBase + documentID
}

// ValidateWindow checks the comment-window invariant: when a start date is
// present the end date must not precede it.
func (p *CommentPeriod) ValidateWindow() error {
	if p.CommentStart != nil && dateOnly(p.CommentEnd).Before(dateOnly(*p.CommentStart)) {
		return fmt.Errorf("comment window ends %s before it starts %s",
			p.CommentEnd.Format(time.DateOnly), p.CommentStart.Format(time.DateOnly))
	}
	return nil
}

// OpenOn reports whether the comment window is still open on the given day.
func (p *CommentPeriod) OpenOn(asOf time.Time) bool {
	return !dateOnly(p.CommentEnd).Before(dateOnly(asOf))
}

// DaysUntilClose returns whole days between asOf and the comment deadline.
// Negative when the deadline has passed.
func (p *CommentPeriod) DaysUntilClose(asOf time.Time) int {
	return DaysBetween(asOf, p.CommentEnd)
}

// DeliveredStage reports the derived ratchet view for one stage.
func (p *CommentPeriod) DeliveredStage(stage Stage) bool {
	if p.Delivered == nil {
		return false
	}
	return p.Delivered[stage]
}

// Dormant reports whether the period has no further notification
// obligations: every stage delivered, or the window already closed.
func (p *CommentPeriod) Dormant(asOf time.Time) bool {
	all := true
	for _, stage := range AllStages() {
		if !p.DeliveredStage(stage) {
			all = false
			break
		}
	}
	if all {
		return true
	}
	return !p.OpenOn(asOf)
}

// MergeTopics unions additional topics into the period, keeping the set
// sorted and free of duplicates. Topic assignment is monotonic; nothing is
// ever removed.
func (p *CommentPeriod) MergeTopics(topics []Topic) {
	if len(topics) == 0 {
		return
	}
	seen := make(map[Topic]struct{}, len(p.Topics)+len(topics))
	for _, t := range p.Topics {
		seen[t] = struct{}{}
	}
	for _, t := range topics {
		seen[t] = struct{}{}
	}
	merged := make([]Topic, 0, len(seen))
	for t := range seen {
		merged = append(merged, t)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	p.Topics = merged
}

// DaysBetween returns the whole-day difference to - from, comparing calendar
// days in UTC rather than elapsed durations.
func DaysBetween(from, to time.Time) int {
	f := dateOnly(from)
	t := dateOnly(to)
	return int(t.Sub(f).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
