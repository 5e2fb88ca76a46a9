package notify

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"regwatch/internal/period"
	"regwatch/internal/textutil"
)

// maxPostRunes is the Bluesky post length ceiling. Counted in runes here,
// which slightly undercounts against the grapheme limit and stays safe.
const maxPostRunes = 300

var hashtagCaser = cases.Title(language.AmericanEnglish)

// Render produces the post text for one period at one stage, fitting the
// length ceiling by truncating the title.
func Render(p *period.CommentPeriod, stage period.Stage) string {
	heading := stageHeading(stage)
	if len(p.Topics) > 0 {
		heading += " " + p.Topics[0].Emoji()
	}

	deadline := "Comment by " + p.CommentEnd.Format("Jan 2, 2006") + ":"
	link := p.CommentURL
	if link == "" {
		link = period.CommentURLFor(p.DocumentID)
	}
	tags := hashtags(p.Topics)

	frame := heading + "\n" + p.AgencyName + "\n\n" + "%s" + "\n\n" + deadline + "\n" + link
	if tags != "" {
		frame += "\n\n" + tags
	}

	// Two runes cover the quotes around the title.
	budget := maxPostRunes - len([]rune(strings.ReplaceAll(frame, "%s", ""))) - 2
	if budget < 12 {
		budget = 12
	}
	title := textutil.TruncateRunes(p.Title, budget)
	return fmt.Sprintf(frame, "“"+title+"”")
}

func stageHeading(stage period.Stage) string {
	switch stage {
	case period.StageNew:
		return "🆕 New comment period open"
	case period.StageReminder7d:
		return "📅 7 days left to comment"
	case period.StageReminder3d:
		return "⏳ 3 days left to comment"
	case period.StageLastDay:
		return "⏰ Last day to comment"
	default:
		return "📢 Comment period update"
	}
}

// hashtags renders the topic tags plus the standing #PublicComment tag.
func hashtags(topics []period.Topic) string {
	tags := make([]string, 0, len(topics)+1)
	for _, topic := range topics {
		if tag := hashtag(topic); tag != "" {
			tags = append(tags, tag)
		}
	}
	tags = append(tags, "#PublicComment")
	return strings.Join(tags, " ")
}

// hashtag title-cases the display name and strips everything a tag cannot
// carry: "Privacy & Security" becomes "#PrivacySecurity".
func hashtag(topic period.Topic) string {
	cased := hashtagCaser.String(topic.DisplayName())
	var b strings.Builder
	for _, r := range cased {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
