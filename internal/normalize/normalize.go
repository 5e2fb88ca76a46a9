package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"regwatch/internal/period"
	"regwatch/internal/textutil"
)

// ErrMalformedRecord rejects payloads that cannot yield a usable period.
var ErrMalformedRecord = errors.New("malformed record")

// RawDocument mirrors one item of the regulations.gov v4 documents payload.
type RawDocument struct {
	ID         string        `json:"id"`
	Attributes RawAttributes `json:"attributes"`
}

// RawAttributes carries the document attributes regwatch consumes; extra
// upstream fields are dropped by the JSON decoder.
type RawAttributes struct {
	Title              string `json:"title"`
	DocketID           string `json:"docketId"`
	AgencyID           string `json:"agencyId"`
	DocumentType       string `json:"documentType"`
	PostedDate         string `json:"postedDate"`
	CommentStartDate   string `json:"commentStartDate"`
	CommentEndDate     string `json:"commentEndDate"`
	OpenForComment     bool   `json:"openForComment"`
	Summary            string `json:"summary"`
	HighlightedContent string `json:"highlightedContent"`
	FRDocNum           string `json:"frDocNum"`
	RIN                string `json:"rin"`
}

const federalRegisterURLBase = "https://www.federalregister.gov/documents/"

// agencyNames maps common agency identifiers to their full names.
var agencyNames = map[string]string{
	"EPA":  "Environmental Protection Agency",
	"FDA":  "Food and Drug Administration",
	"FCC":  "Federal Communications Commission",
	"FTC":  "Federal Trade Commission",
	"DOL":  "Department of Labor",
	"HHS":  "Department of Health and Human Services",
	"DOT":  "Department of Transportation",
	"ED":   "Department of Education",
	"HUD":  "Department of Housing and Urban Development",
	"USDA": "Department of Agriculture",
	"DOE":  "Department of Energy",
	"DHS":  "Department of Homeland Security",
	"SEC":  "Securities and Exchange Commission",
	"CFPB": "Consumer Financial Protection Bureau",
}

// Document converts a raw regulations.gov document into a CommentPeriod.
func Document(raw RawDocument) (*period.CommentPeriod, error) {
	documentID := strings.TrimSpace(raw.ID)
	if documentID == "" {
		return nil, fmt.Errorf("%w: missing document id", ErrMalformedRecord)
	}

	end, err := parseUpstreamDate(raw.Attributes.CommentEndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: comment end date: %v", ErrMalformedRecord, documentID, err)
	}

	p := &period.CommentPeriod{
		DocumentID:   documentID,
		DocketID:     strings.TrimSpace(raw.Attributes.DocketID),
		Title:        textutil.CollapseWhitespace(raw.Attributes.Title),
		AgencyID:     strings.ToUpper(strings.TrimSpace(raw.Attributes.AgencyID)),
		DocumentType: strings.TrimSpace(raw.Attributes.DocumentType),
		CommentEnd:   end,
		CommentURL:   period.CommentURLFor(documentID),
		DetailURL:    period.DetailURLFor(documentID),
	}

	if p.Title == "" {
		p.Title = "Untitled Document"
	}
	if p.DocketID == "" {
		p.DocketID = documentID
	}
	if p.AgencyID == "" {
		p.AgencyID = "UNKNOWN"
	}
	p.AgencyName = agencyNames[p.AgencyID]
	if p.AgencyName == "" {
		p.AgencyName = p.AgencyID
	}

	if posted, err := parseUpstreamDate(raw.Attributes.PostedDate); err == nil {
		p.PostedDate = posted
	}
	if start, err := parseUpstreamDate(raw.Attributes.CommentStartDate); err == nil {
		p.CommentStart = &start
	}

	abstract := raw.Attributes.Summary
	if abstract == "" {
		abstract = raw.Attributes.HighlightedContent
	}
	p.Abstract = textutil.StripHTML(abstract)

	if rin := strings.TrimSpace(raw.Attributes.RIN); rin != "" {
		p.Keywords = "RIN: " + rin
	}
	if frDocNum := strings.TrimSpace(raw.Attributes.FRDocNum); frDocNum != "" {
		p.FederalRegisterURL = federalRegisterURLBase + frDocNum
	}

	return p, nil
}

// FederalRegisterDocNum extracts the document number from a Federal
// Register URL, the cross-reference key for enrichment.
func FederalRegisterDocNum(frURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(frURL), "/")
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return ""
	}
	return trimmed[idx+1:]
}

// parseUpstreamDate accepts the date shapes regulations.gov emits: plain
// YYYY-MM-DD or an RFC3339 timestamp.
func parseUpstreamDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
}
