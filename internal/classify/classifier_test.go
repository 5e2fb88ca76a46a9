package classify

import (
	"testing"

	"regwatch/internal/period"
)

func mustClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier()
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifyByAgency(t *testing.T) {
	c := mustClassifier(t)

	topics := c.Classify(Input{Title: "Procedural amendments", AgencyID: "EPA"})
	if len(topics) != 1 || topics[0] != period.TopicEnvironment {
		t.Fatalf("topics = %v, want [environment] from the EPA agency rule", topics)
	}
}

func TestClassifyByKeyword(t *testing.T) {
	c := mustClassifier(t)

	topics := c.Classify(Input{
		Title:    "Request for Comment on Broadband Deployment",
		Abstract: "Spectrum allocation for wireless carriers.",
		AgencyID: "XYZ",
	})
	if len(topics) != 1 || topics[0] != period.TopicTechnology {
		t.Fatalf("topics = %v, want [technology]", topics)
	}
}

func TestClassifyIsCaseInsensitiveAndSorted(t *testing.T) {
	c := mustClassifier(t)

	topics := c.Classify(Input{
		Title:    "MEDICARE coverage of TELEHEALTH",
		Abstract: "Patient privacy and DATA PROTECTION requirements.",
		AgencyID: "hhs",
	})
	want := []period.Topic{period.TopicHealthcare, period.TopicPrivacySecurity}
	if len(topics) != len(want) {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %v, want %v (sorted)", i, topics[i], want[i])
		}
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := mustClassifier(t)

	if topics := c.Classify(Input{Title: "Miscellaneous technical corrections", AgencyID: "GSA"}); len(topics) != 0 {
		t.Fatalf("topics = %v, want none", topics)
	}
}

func TestRulesRejectUnknownTopics(t *testing.T) {
	_, err := newClassifierFromBytes([]byte("topics:\n  astrology:\n    keywords: [stars]\n"))
	if err == nil {
		t.Fatal("unknown topic name should fail rule parsing")
	}
}

func TestAdapterMergesMonotonically(t *testing.T) {
	adapter := NewAdapter(mustClassifier(t))

	p := &period.CommentPeriod{
		DocumentID: "FCC-2026-0001",
		Title:      "Broadband data collection",
		AgencyID:   "FCC",
		Topics:     []period.Topic{period.TopicEducation},
	}
	adapter.AttachTopics(p)

	has := func(topic period.Topic) bool {
		for _, t := range p.Topics {
			if t == topic {
				return true
			}
		}
		return false
	}
	if !has(period.TopicEducation) {
		t.Error("pre-existing topic was dropped")
	}
	if !has(period.TopicTechnology) {
		t.Errorf("classifier topics not merged: %v", p.Topics)
	}
}
