package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"regwatch/internal/logging"
	"regwatch/internal/period"
	"regwatch/internal/store"
)

// Reader is the slice of the store the projector consumes.
type Reader interface {
	QueryOpen(ctx context.Context, filter store.OpenFilter) ([]*period.CommentPeriod, error)
	GetStats(ctx context.Context, asOf time.Time) (store.Stats, error)
}

// Projector regenerates the static site artifacts.
type Projector struct {
	reader  Reader
	siteDir string
	logger  *slog.Logger
}

// NewProjector wires a projector targeting siteDir.
func NewProjector(reader Reader, siteDir string, logger *slog.Logger) *Projector {
	return &Projector{
		reader:  reader,
		siteDir: siteDir,
		logger:  logging.NewComponentLogger(logger, "project"),
	}
}

type topicJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type periodJSON struct {
	DocumentID         string      `json:"document_id"`
	DocketID           string      `json:"docket_id"`
	Title              string      `json:"title"`
	AgencyID           string      `json:"agency_id"`
	AgencyName         string      `json:"agency_name"`
	DocumentType       string      `json:"document_type,omitempty"`
	PostedDate         string      `json:"posted_date"`
	CommentEnd         string      `json:"comment_end_date"`
	DaysLeft           int         `json:"days_left"`
	Abstract           string      `json:"abstract,omitempty"`
	CommentURL         string      `json:"comment_url"`
	DetailURL          string      `json:"detail_url"`
	FederalRegisterURL string      `json:"federal_register_url,omitempty"`
	Topics             []topicJSON `json:"topics"`
	Announced          bool        `json:"announced"`
}

type siteData struct {
	GeneratedAt string `json:"generated_at"`
	AsOf        string `json:"as_of"`
	Stats       struct {
		TotalPeriods     int `json:"total_periods"`
		OpenPeriods      int `json:"open_periods"`
		AnnouncedPeriods int `json:"announced_periods"`
		TotalReceipts    int `json:"total_receipts"`
	} `json:"stats"`
	Periods []periodJSON `json:"periods"`
}

// Run regenerates data.json and feed.xml under the site directory.
func (pr *Projector) Run(ctx context.Context, asOf time.Time) error {
	if pr.siteDir == "" {
		return nil
	}
	periods, err := pr.reader.QueryOpen(ctx, store.OpenFilter{AsOf: asOf})
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	stats, err := pr.reader.GetStats(ctx, asOf)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	if err := os.MkdirAll(pr.siteDir, 0o755); err != nil {
		return fmt.Errorf("project: create site dir: %w", err)
	}
	if err := pr.writeData(asOf, periods, stats); err != nil {
		return err
	}
	if err := pr.writeFeed(asOf, periods); err != nil {
		return err
	}

	pr.logger.Info("site artifacts regenerated",
		logging.String("site_dir", pr.siteDir),
		logging.Int("open_periods", len(periods)))
	return nil
}

func (pr *Projector) writeData(asOf time.Time, periods []*period.CommentPeriod, stats store.Stats) error {
	data := siteData{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		AsOf:        asOf.Format(time.DateOnly),
		Periods:     make([]periodJSON, 0, len(periods)),
	}
	data.Stats.TotalPeriods = stats.TotalPeriods
	data.Stats.OpenPeriods = stats.OpenPeriods
	data.Stats.AnnouncedPeriods = stats.AnnouncedPeriods
	data.Stats.TotalReceipts = stats.TotalReceipts

	for _, p := range periods {
		entry := periodJSON{
			DocumentID:         p.DocumentID,
			DocketID:           p.DocketID,
			Title:              p.Title,
			AgencyID:           p.AgencyID,
			AgencyName:         p.AgencyName,
			DocumentType:       p.DocumentType,
			PostedDate:         p.PostedDate.Format(time.DateOnly),
			CommentEnd:         p.CommentEnd.Format(time.DateOnly),
			DaysLeft:           p.DaysUntilClose(asOf),
			Abstract:           p.Abstract,
			CommentURL:         p.CommentURL,
			DetailURL:          p.DetailURL,
			FederalRegisterURL: p.FederalRegisterURL,
			Topics:             make([]topicJSON, 0, len(p.Topics)),
			Announced:          p.DeliveredStage(period.StageNew),
		}
		for _, topic := range p.Topics {
			entry.Topics = append(entry.Topics, topicJSON{
				ID:    string(topic),
				Name:  topic.DisplayName(),
				Emoji: topic.Emoji(),
			})
		}
		data.Periods = append(data.Periods, entry)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode data: %w", err)
	}
	return writeAtomic(filepath.Join(pr.siteDir, "data.json"), append(encoded, '\n'))
}

// writeAtomic writes through a temp file and rename so readers never see a
// half-written artifact.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("project: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("project: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
