package period

import "strings"

// Topic is one of the fixed subject categories a comment period can carry.
type Topic string

const (
	TopicEnvironment     Topic = "environment"
	TopicHealthcare      Topic = "healthcare"
	TopicPrivacySecurity Topic = "privacy_security"
	TopicLaborEmployment Topic = "labor_employment"
	TopicTransportation  Topic = "transportation"
	TopicTechnology      Topic = "technology"
	TopicFinanceBanking  Topic = "finance_banking"
	TopicEducation       Topic = "education"
	TopicHousing         Topic = "housing"
	TopicAgriculture     Topic = "agriculture"
)

var allTopics = []Topic{
	TopicEnvironment,
	TopicHealthcare,
	TopicPrivacySecurity,
	TopicLaborEmployment,
	TopicTransportation,
	TopicTechnology,
	TopicFinanceBanking,
	TopicEducation,
	TopicHousing,
	TopicAgriculture,
}

var topicSet = func() map[Topic]struct{} {
	set := make(map[Topic]struct{}, len(allTopics))
	for _, topic := range allTopics {
		set[topic] = struct{}{}
	}
	return set
}()

var topicNames = map[Topic]string{
	TopicEnvironment:     "Environment & Climate",
	TopicHealthcare:      "Healthcare",
	TopicPrivacySecurity: "Privacy & Security",
	TopicLaborEmployment: "Labor & Employment",
	TopicTransportation:  "Transportation",
	TopicTechnology:      "Technology & Internet",
	TopicFinanceBanking:  "Finance & Banking",
	TopicEducation:       "Education",
	TopicHousing:         "Housing",
	TopicAgriculture:     "Agriculture & Food",
}

var topicEmoji = map[Topic]string{
	TopicEnvironment:     "🌍",
	TopicHealthcare:      "🏥",
	TopicPrivacySecurity: "🛡️",
	TopicLaborEmployment: "💼",
	TopicTransportation:  "🚗",
	TopicTechnology:      "💻",
	TopicFinanceBanking:  "🏦",
	TopicEducation:       "🎓",
	TopicHousing:         "🏠",
	TopicAgriculture:     "🌾",
}

// AllTopics returns the fixed topic enumeration.
func AllTopics() []Topic {
	cp := make([]Topic, len(allTopics))
	copy(cp, allTopics)
	return cp
}

// ParseTopic converts a string into a known Topic.
func ParseTopic(value string) (Topic, bool) {
	normalized := Topic(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := topicSet[normalized]
	return normalized, ok
}

// DisplayName returns the human-readable topic label.
func (t Topic) DisplayName() string {
	if name, ok := topicNames[t]; ok {
		return name
	}
	return string(t)
}

// Emoji returns the topic marker used in rendered posts and site output.
func (t Topic) Emoji() string {
	return topicEmoji[t]
}
