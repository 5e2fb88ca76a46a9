package classify

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"regwatch/internal/period"
)

//go:embed rules.yaml
var embeddedRules []byte

// Input carries the fields the classifier inspects.
type Input struct {
	Title    string
	Abstract string
	AgencyID string
}

type topicRule struct {
	Agencies []string `yaml:"agencies"`
	Keywords []string `yaml:"keywords"`
}

type ruleFile struct {
	Topics map[string]topicRule `yaml:"topics"`
}

// Classifier matches comment periods against the embedded topic rule table.
type Classifier struct {
	rules map[period.Topic]topicRule
}

// NewClassifier parses the embedded rule table.
func NewClassifier() (*Classifier, error) {
	return newClassifierFromBytes(embeddedRules)
}

func newClassifierFromBytes(data []byte) (*Classifier, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse topic rules: %w", err)
	}
	if len(file.Topics) == 0 {
		return nil, fmt.Errorf("topic rules empty")
	}

	rules := make(map[period.Topic]topicRule, len(file.Topics))
	for name, rule := range file.Topics {
		topic, ok := period.ParseTopic(name)
		if !ok {
			return nil, fmt.Errorf("topic rules reference unknown topic %q", name)
		}
		rules[topic] = rule
	}
	return &Classifier{rules: rules}, nil
}

// Classify returns the sorted topic set matching the input. Matching is
// case-insensitive: agency identifiers compare exactly, keywords match as
// substrings of the combined title and abstract.
func (c *Classifier) Classify(input Input) []period.Topic {
	searchText := strings.ToLower(input.Title) + " " + strings.ToLower(input.Abstract)
	agency := strings.ToUpper(strings.TrimSpace(input.AgencyID))

	var matches []period.Topic
	for topic, rule := range c.rules {
		if matchesRule(rule, agency, searchText) {
			matches = append(matches, topic)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return matches
}

func matchesRule(rule topicRule, agency, searchText string) bool {
	for _, a := range rule.Agencies {
		if strings.EqualFold(a, agency) {
			return true
		}
	}
	for _, keyword := range rule.Keywords {
		if strings.Contains(searchText, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
