package notify

import (
	"strings"
	"testing"
	"time"

	"regwatch/internal/period"
)

func renderablePeriod() *period.CommentPeriod {
	return &period.CommentPeriod{
		DocumentID: "EPA-2026-0001",
		Title:      "Proposed Revisions to National Ambient Air Quality Standards",
		AgencyID:   "EPA",
		AgencyName: "Environmental Protection Agency",
		CommentEnd: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CommentURL: period.CommentURLFor("EPA-2026-0001"),
		Topics:     []period.Topic{period.TopicEnvironment},
	}
}

func TestRenderFitsLengthCeiling(t *testing.T) {
	p := renderablePeriod()
	p.Title = strings.Repeat("Very Long Regulatory Title ", 40)

	for _, stage := range period.AllStages() {
		text := Render(p, stage)
		if got := len([]rune(text)); got > maxPostRunes {
			t.Errorf("stage %s: rendered %d runes, ceiling is %d", stage, got, maxPostRunes)
		}
		if !strings.Contains(text, p.CommentURL) {
			t.Errorf("stage %s: truncation dropped the comment link", stage)
		}
	}
}

func TestRenderCarriesStageHeading(t *testing.T) {
	p := renderablePeriod()

	headings := map[period.Stage]string{
		period.StageNew:        "New comment period",
		period.StageReminder7d: "7 days left",
		period.StageReminder3d: "3 days left",
		period.StageLastDay:    "Last day",
	}
	for stage, want := range headings {
		text := Render(p, stage)
		if !strings.Contains(text, want) {
			t.Errorf("stage %s: rendered text missing %q:\n%s", stage, want, text)
		}
	}
}

func TestRenderIncludesDeadlineAndAgency(t *testing.T) {
	text := Render(renderablePeriod(), period.StageReminder7d)
	if !strings.Contains(text, "Mar 15, 2026") {
		t.Errorf("missing deadline date:\n%s", text)
	}
	if !strings.Contains(text, "Environmental Protection Agency") {
		t.Errorf("missing agency name:\n%s", text)
	}
}

func TestHashtags(t *testing.T) {
	got := hashtags([]period.Topic{period.TopicPrivacySecurity, period.TopicEnvironment})
	if !strings.Contains(got, "#PrivacySecurity") {
		t.Errorf("hashtags = %q, want #PrivacySecurity (ampersand and space stripped)", got)
	}
	if !strings.Contains(got, "#EnvironmentClimate") {
		t.Errorf("hashtags = %q, want #EnvironmentClimate", got)
	}
	if !strings.HasSuffix(got, "#PublicComment") {
		t.Errorf("hashtags = %q, want trailing #PublicComment", got)
	}

	if got := hashtags(nil); got != "#PublicComment" {
		t.Errorf("hashtags(nil) = %q", got)
	}
}
