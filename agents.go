package zhishi

import "strings"

// Sentinel agent identifiers.
const (
	// AgentUser attributes a transcript entry to the human user.
	AgentUser = "user"

	// AgentUnknown attributes a batch-reply entry whose position outran
	// the active agent list.
	AgentUnknown = "unknown"

	// UserDisplayName labels user-authored transcript entries.
	UserDisplayName = "你"
)

// Core agent identifiers; all three join every learning session.
const (
	AgentKnowledgeTeacher  = "knowledge_teacher"
	AgentThinkingCollider  = "thinking_collider"
	AgentPracticeConnector = "practice_connector"
)

// Specialist agent identifiers; exactly one joins per session, picked by
// the card's domain.
const (
	AgentScienceExplainer = "science_explainer"
	AgentHistoryNarrator  = "history_narrator"
	AgentArtAppreciator   = "art_appreciator"
	AgentLogicReasoner    = "logic_reasoner"
)

var agentNames = map[string]string{
	AgentKnowledgeTeacher:  "知识讲解师",
	AgentThinkingCollider:  "思维碰撞者",
	AgentPracticeConnector: "实践连接者",
	AgentScienceExplainer:  "科学解释者",
	AgentHistoryNarrator:   "历史叙述者",
	AgentArtAppreciator:    "艺术鉴赏者",
	AgentLogicReasoner:     "逻辑推理者",
	AgentUser:              UserDisplayName,
}

// AgentDisplayName returns the display label for an agent identifier.
func AgentDisplayName(id string) string {
	if name, ok := agentNames[id]; ok {
		return name
	}
	return "未知助手"
}

// AgentGroupFor maps a card's domain label to the session's agent group:
// the three core agents plus one domain specialist. Unrecognized domains
// fall back to the science specialist, so a group always has four members.
func AgentGroupFor(domain string) []string {
	core := []string{AgentKnowledgeTeacher, AgentThinkingCollider, AgentPracticeConnector}

	specialist := AgentScienceExplainer
	switch {
	case containsAny(domain, "科学", "技术"):
		specialist = AgentScienceExplainer
	case containsAny(domain, "历史", "文化"):
		specialist = AgentHistoryNarrator
	case containsAny(domain, "艺术", "文学"):
		specialist = AgentArtAppreciator
	case containsAny(domain, "哲学", "逻辑"):
		specialist = AgentLogicReasoner
	}

	return append(core, specialist)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
