package chunk

import "strings"

// Topic detection caps. Child chunks keep a small top-N so payload metadata
// stays bounded; parents union their children up to the larger cap.
const (
	MaxTopicsPerChild  = 5
	MaxTopicsPerParent = 10
)

// topicVocabulary maps topic labels to trigger keywords. Detection is a
// fixed-vocabulary keyword scan; downstream consumers depend on these exact
// labels, so the table is not a place for clever NLP.
var topicVocabulary = []struct {
	topic    string
	keywords []string
}{
	{"pricing", []string{"price", "pricing", "cost", "fee", "discount", "quote", "budget"}},
	{"contract", []string{"contract", "agreement", "terms", "renewal", "sign"}},
	{"timeline", []string{"timeline", "deadline", "quarter", "launch", "rollout"}},
	{"competitors", []string{"competitor", "alternative", "versus", "switch from"}},
	{"integration", []string{"integration", "api", "connect", "sync", "import"}},
	{"support", []string{"support", "onboarding", "training", "help desk", "sla"}},
	{"security", []string{"security", "compliance", "gdpr", "soc2", "audit"}},
	{"features", []string{"feature", "capability", "functionality", "roadmap"}},
	{"decision", []string{"decision", "approval", "stakeholder", "sign-off", "procurement"}},
	{"billing", []string{"invoice", "billing", "payment", "subscription"}},
}

// DetectTopics scans text for vocabulary hits, case-insensitive, and returns
// at most max topic labels in vocabulary order.
func DetectTopics(text string, max int) []string {
	if max <= 0 || text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var topics []string
	for _, entry := range topicVocabulary {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, entry.topic)
				break
			}
		}
		if len(topics) >= max {
			break
		}
	}
	return topics
}

// unionTopics merges topic lists preserving first-seen order, capped at max.
func unionTopics(lists [][]string, max int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, topic := range list {
			if _, ok := seen[topic]; ok {
				continue
			}
			seen[topic] = struct{}{}
			out = append(out, topic)
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}
