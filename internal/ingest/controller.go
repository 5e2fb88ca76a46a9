package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"regwatch/internal/config"
	"regwatch/internal/logging"
	"regwatch/internal/normalize"
	"regwatch/internal/period"
	"regwatch/internal/sources"
	"regwatch/internal/store"
	"regwatch/internal/textutil"
)

// Fetcher is the primary document source.
type Fetcher interface {
	FetchDocuments(ctx context.Context, filter sources.DocumentFilter, page int) (sources.DocumentPage, error)
	DocumentDetail(ctx context.Context, documentID string) (normalize.RawDocument, error)
}

// Enricher resolves Federal Register cross-references.
type Enricher interface {
	DocumentByNumber(ctx context.Context, docNum string) (*sources.Enrichment, error)
}

// Classifier assigns topics to a period in place.
type Classifier interface {
	AttachTopics(p *period.CommentPeriod)
}

// Persister is the slice of the store ingestion writes through.
type Persister interface {
	Upsert(ctx context.Context, p *period.CommentPeriod) (store.UpsertOutcome, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Pages     int
	Fetched   int
	Malformed int
	Closed    int
	Rejected  int
	Created   int
	Updated   int
	Enriched  int
}

// Controller drives one ingestion pass per cycle.
type Controller struct {
	cfg      config.Ingest
	maxPages int
	fetcher  Fetcher
	enricher Enricher
	class    Classifier
	persist  Persister
	logger   *slog.Logger

	// DryRun skips store writes and reports what would have been written.
	DryRun bool
}

// NewController wires an ingestion controller. enricher may be nil when
// Federal Register enrichment is disabled.
func NewController(cfg *config.Config, fetcher Fetcher, enricher Enricher, class Classifier, persist Persister, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		cfg:      cfg.Ingest,
		maxPages: cfg.RegulationsGov.MaxPages,
		fetcher:  fetcher,
		enricher: enricher,
		class:    class,
		persist:  persist,
		logger:   logger.With(logging.String(logging.FieldComponent, "ingest")),
	}
}

// Run fetches and stores everything currently open, paginating until the
// source reports no more pages or the page cap is hit. The returned error
// reports a fetch abort; records already processed are kept either way.
func (c *Controller) Run(ctx context.Context, asOf time.Time) (Stats, error) {
	var stats Stats

	filter := sources.DocumentFilter{
		PostedSince:     asOf.AddDate(0, 0, -c.cfg.LookbackDays),
		ClosesOnOrAfter: asOf,
		DocumentTypes:   c.cfg.DocumentTypes,
	}
	c.logger.Info("ingestion started",
		logging.String("posted_since", filter.PostedSince.Format(time.DateOnly)),
		logging.String("as_of", asOf.Format(time.DateOnly)),
		logging.Bool("dry_run", c.DryRun))

	maxPages := c.maxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		result, err := c.fetcher.FetchDocuments(ctx, filter, page)
		if err != nil {
			c.logger.Error("document fetch failed, stopping pagination",
				logging.Int("page", page),
				logging.Error(err))
			return stats, fmt.Errorf("fetch documents page %d: %w", page, err)
		}
		stats.Pages++
		stats.Fetched += len(result.Records)

		for _, raw := range result.Records {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			c.processRecord(ctx, raw, asOf, &stats)
		}

		if !result.HasMore {
			break
		}
	}

	c.logger.Info("ingestion finished",
		logging.Int("pages", stats.Pages),
		logging.Int("fetched", stats.Fetched),
		logging.Int("created", stats.Created),
		logging.Int("updated", stats.Updated),
		logging.Int("enriched", stats.Enriched),
		logging.Int("malformed", stats.Malformed),
		logging.Int("closed", stats.Closed),
		logging.Int("rejected", stats.Rejected))
	return stats, nil
}

// processRecord handles one raw document end to end. Failures are counted
// and logged; nothing escapes to the batch.
func (c *Controller) processRecord(ctx context.Context, raw normalize.RawDocument, asOf time.Time, stats *Stats) {
	if !raw.Attributes.OpenForComment {
		stats.Closed++
		return
	}

	raw = c.fillDetail(ctx, raw)

	p, err := normalize.Document(raw)
	if err != nil {
		if errors.Is(err, normalize.ErrMalformedRecord) {
			stats.Malformed++
			c.logger.Warn("skipping malformed record", logging.Error(err))
			return
		}
		stats.Rejected++
		c.logger.Warn("skipping record", logging.Error(err))
		return
	}

	if c.enrich(ctx, p) {
		stats.Enriched++
	}
	c.class.AttachTopics(p)

	if c.DryRun {
		c.logger.Info("dry run: would upsert",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String("comment_end", p.CommentEnd.Format(time.DateOnly)))
		return
	}

	outcome, err := c.persist.Upsert(ctx, p)
	switch {
	case errors.Is(err, store.ErrInvalidWindow):
		stats.Rejected++
		c.logger.Warn("rejecting period with inverted window",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.Error(err))
	case err != nil:
		stats.Rejected++
		c.logger.Error("upsert failed",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.Error(err))
	case outcome == store.OutcomeCreated:
		stats.Created++
		c.logger.Info("comment period tracked",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String("agency", p.AgencyID),
			logging.String("comment_end", p.CommentEnd.Format(time.DateOnly)))
	default:
		stats.Updated++
	}
}

// fillDetail backfills the summary from the detail endpoint when the
// listing omitted it. Best effort.
func (c *Controller) fillDetail(ctx context.Context, raw normalize.RawDocument) normalize.RawDocument {
	if raw.Attributes.Summary != "" || strings.TrimSpace(raw.ID) == "" {
		return raw
	}
	detail, err := c.fetcher.DocumentDetail(ctx, raw.ID)
	if err != nil {
		c.logger.Debug("document detail unavailable",
			logging.String(logging.FieldDocumentID, raw.ID),
			logging.Error(err))
		return raw
	}
	if detail.Attributes.Summary != "" {
		raw.Attributes.Summary = detail.Attributes.Summary
	}
	if raw.Attributes.FRDocNum == "" {
		raw.Attributes.FRDocNum = detail.Attributes.FRDocNum
	}
	return raw
}

// enrich folds Federal Register fields into the period when a
// cross-reference exists. Returns true when anything was added.
func (c *Controller) enrich(ctx context.Context, p *period.CommentPeriod) bool {
	if c.enricher == nil {
		return false
	}
	docNum := normalize.FederalRegisterDocNum(p.FederalRegisterURL)
	if docNum == "" {
		return false
	}

	enrichment, err := c.enricher.DocumentByNumber(ctx, docNum)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			c.logger.Debug("no federal register record",
				logging.String(logging.FieldDocumentID, p.DocumentID),
				logging.String("fr_doc_num", docNum))
		} else {
			c.logger.Warn("federal register enrichment failed",
				logging.String(logging.FieldDocumentID, p.DocumentID),
				logging.Error(err))
		}
		return false
	}

	enriched := false
	if abstract := textutil.StripHTML(enrichment.Abstract); abstract != "" && p.Abstract == "" {
		p.Abstract = abstract
		enriched = true
	}
	if summary := textutil.StripHTML(enrichment.Action); summary != "" && p.Summary == "" {
		p.Summary = summary
		enriched = true
	}
	if len(enrichment.Topics) > 0 {
		keywords := strings.Join(enrichment.Topics, "; ")
		if p.Keywords == "" {
			p.Keywords = keywords
		} else if !strings.Contains(p.Keywords, keywords) {
			p.Keywords += "; " + keywords
		}
		enriched = true
	}
	if enrichment.HTMLURL != "" {
		p.FederalRegisterURL = enrichment.HTMLURL
		enriched = true
	}
	return enriched
}
