package classify

import (
	"sync"

	"regwatch/internal/period"
)

// Adapter wraps a classifier with per-run memoization and applies results
// to periods with a monotonic merge: topics accumulate across repeated
// classification as abstracts get enriched, and are never removed.
type Adapter struct {
	classifier *Classifier

	mu    sync.Mutex
	cache map[Input][]period.Topic
}

// NewAdapter builds an adapter over the given classifier.
func NewAdapter(classifier *Classifier) *Adapter {
	return &Adapter{
		classifier: classifier,
		cache:      make(map[Input][]period.Topic),
	}
}

// AttachTopics classifies the period and unions the result into its topic
// set in place.
func (a *Adapter) AttachTopics(p *period.CommentPeriod) {
	if p == nil {
		return
	}
	topics := a.classify(Input{
		Title:    p.Title,
		Abstract: p.Abstract,
		AgencyID: p.AgencyID,
	})
	p.MergeTopics(topics)
}

func (a *Adapter) classify(input Input) []period.Topic {
	a.mu.Lock()
	cached, ok := a.cache[input]
	a.mu.Unlock()
	if ok {
		return cached
	}

	topics := a.classifier.Classify(input)

	a.mu.Lock()
	a.cache[input] = topics
	a.mu.Unlock()
	return topics
}
