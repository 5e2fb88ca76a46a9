package project

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"regwatch/internal/period"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// writeFeed renders the open periods as an RSS 2.0 feed ordered by
// closing date, soonest first.
func (pr *Projector) writeFeed(asOf time.Time, periods []*period.CommentPeriod) error {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         "Open Federal Comment Periods",
			Link:          "https://www.regulations.gov",
			Description:   "Federal regulations currently open for public comment",
			Language:      "en-us",
			LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
		},
	}

	for _, p := range periods {
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       fmt.Sprintf("%s: %s", p.AgencyID, p.Title),
			Link:        p.CommentURL,
			Description: feedDescription(p, asOf),
			GUID:        p.DocumentID,
			PubDate:     p.PostedDate.Format(time.RFC1123Z),
		})
	}

	encoded, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode feed: %w", err)
	}
	body := []byte(xml.Header + string(encoded) + "\n")
	return writeAtomic(filepath.Join(pr.siteDir, "feed.xml"), body)
}

func feedDescription(p *period.CommentPeriod, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. Comments close %s (%d days left).",
		p.AgencyName, p.CommentEnd.Format("January 2, 2006"), p.DaysUntilClose(asOf))
	if len(p.Topics) > 0 {
		names := make([]string, 0, len(p.Topics))
		for _, topic := range p.Topics {
			names = append(names, topic.DisplayName())
		}
		fmt.Fprintf(&b, " Topics: %s.", strings.Join(names, ", "))
	}
	if p.Abstract != "" {
		b.WriteString(" ")
		b.WriteString(p.Abstract)
	}
	return b.String()
}
