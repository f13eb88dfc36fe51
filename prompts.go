package zhishi

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Prompt construction for card generation and learning sessions. The 70/30
// continuation/novelty split is a framing hint to the model, not a
// structural guarantee; whatever comes back is accepted as-is after
// coercion.

// cardBatchPrompt frames a batch request: floor(count*0.7) cards as
// continuations of the most recent cards, the remainder as novel topics.
func cardBatchPrompt(domains []string, existing []KnowledgeCard, count int) string {
	relatedCount := int(math.Floor(float64(count) * continuationRatio))
	randomCount := count - relatedCount

	var history strings.Builder
	start := len(existing) - recentCardWindow
	if start < 0 {
		start = 0
	}
	for _, c := range existing[start:] {
		prefix := []rune(c.Content)
		if len(prefix) > contentPrefixRunes {
			prefix = prefix[:contentPrefixRunes]
		}
		fmt.Fprintf(&history, "- %s: %s...\n", c.Title, string(prefix))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "基于以下信息生成%d个极具吸引力的知识卡片：\n\n", count)
	fmt.Fprintf(&b, "用户关注领域：%s\n\n", strings.Join(domains, "、"))
	if history.Len() > 0 {
		fmt.Fprintf(&b, "已有卡片历史：\n%s\n", history.String())
	}
	fmt.Fprintf(&b, `要求：
1. 标题简洁有趣，包含悬念元素（数字、疑问、认知冲突、震撼词）
2. 内容200-300字：震撼开头 + 核心知识（必须包含具体实验/事件名称、具体数字、因果解释）+ 悬念结尾
3. 语言生动易懂，适合移动端阅读
4. 特别关注反常识、冷知识、颠覆认知的内容
5. 内容分布：%d个基于已有内容深入探索，%d个全新的吸引人主题

返回JSON格式，不要包含任何markdown标记：
{
  "cards": [
    {
      "id": "unique_id",
      "title": "极具吸引力的悬念式标题",
      "content": "震撼开头+核心内容+悬念结尾...",
      "category": "知识分类",
      "difficulty": "easy|medium|hard",
      "domain": "所属领域",
      "relatedDomains": ["相关领域1"],
      "tags": ["标签1", "标签2"]
    }
  ]
}`, relatedCount, randomCount)
	return b.String()
}

// strictCardPrompt is the minimal retry prompt describing only the required
// shape, used when the first response could not be coerced.
const strictCardPrompt = `仅输出JSON，不要任何额外文字。结构：{"cards":[{"id":"string","title":"string","content":"string","category":"string","difficulty":"easy|medium|hard","domain":"string","relatedDomains":[],"tags":[]}]}`

var agentPersonas = map[string]string{
	AgentKnowledgeTeacher:  "知识讲解师：耐心的启蒙导师，用悬念式开头和震撼案例建立准确清晰的知识基础，循序渐进",
	AgentThinkingCollider:  "思维碰撞者：犀利的思辨者，展示观点冲突，用震撼事实挑战既有认知，揭示知识背后的争议",
	AgentPracticeConnector: "实践连接者：务实的实干家，用具体应用案例连接理论与现实，让用户看到知识的威力",
	AgentScienceExplainer:  "科学解释者：严谨的科学家，用实验和证据解释科学概念，确保准确客观",
	AgentHistoryNarrator:   "历史叙述者：博学的历史学家，用生动的故事梳理时间线与因果，揭示事件的深层原因",
	AgentArtAppreciator:    "艺术鉴赏者：感性的艺术导师，解读美学价值与文化内涵，激发艺术想象力",
	AgentLogicReasoner:     "逻辑推理者：严谨的逻辑学家，梳理推理过程，识别逻辑谬误，条理清晰",
}

// multiAgentPrompt requests one batched reply attributed to every active
// agent in a single structured response.
func multiAgentPrompt(card *KnowledgeCard, agentIDs []string) string {
	names := make([]string, len(agentIDs))
	var personas strings.Builder
	for i, id := range agentIDs {
		names[i] = AgentDisplayName(id)
		if p, ok := agentPersonas[id]; ok {
			fmt.Fprintf(&personas, "- %s\n", p)
		}
	}

	cardJSON, _ := json.Marshal(card)

	var b strings.Builder
	fmt.Fprintf(&b, "请模拟%s这%d个AI助手的协作对话。\n\n", strings.Join(names, "、"), len(agentIDs))
	fmt.Fprintf(&b, "助手设定：\n%s\n", personas.String())
	fmt.Fprintf(&b, "当前知识卡片：%s\n\n", cardJSON)
	b.WriteString(`要求：
1. 每个助手都要参与讨论，按上面的顺序各回复一次，展示不同观点
2. 用震撼的事实和案例吸引用户，创造认知冲突和思维碰撞
3. 不要反问用户，专注于内容输出，每条回复控制在60-100字
4. 特别关注反常识、冷知识、颠覆认知的内容

返回JSON格式，不要包含任何markdown标记：
{
  "responses": [
    {"agent": "助手名称", "message": "回复内容"},
    {"agent": "助手名称", "message": "回复内容"}
  ]
}`)
	return b.String()
}

// optionsPrompt requests the initial curiosity-option set for a card.
func optionsPrompt(card *KnowledgeCard, currentTopic string) string {
	cardJSON, _ := json.Marshal(card)

	var b strings.Builder
	b.WriteString("基于当前知识卡片内容，生成3-4个让用户难以拒绝的好奇心驱动选择选项。\n\n")
	fmt.Fprintf(&b, "当前知识卡片：%s\n当前话题：%s\n\n", cardJSON, currentTopic)
	b.WriteString(`要求：
1. 每个选项都要包含悬念和好奇心元素，让人想立即点击
2. 选项要引导用户深入探索相关知识
3. 选项要简短有力，不超过15个字
4. 避免反问句，使用陈述句或感叹句

返回JSON格式，不要包含任何markdown标记：
{
  "options": [
    {"id": "option1", "text": "选项文本", "curiosity": "好奇心描述", "nextTopic": "下一个话题"}
  ]
}`)
	return b.String()
}

// nextOptionsPrompt requests a refreshed option set conditioned on the full
// conversation so far.
func nextOptionsPrompt(card *KnowledgeCard, messages []AgentMessage) string {
	var history strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&history, "%s: %s\n", m.AgentName, m.Message)
	}

	var b strings.Builder
	b.WriteString("基于以下知识卡片和对话历史，生成3-4个极具吸引力的下一步探索问题：\n\n")
	fmt.Fprintf(&b, "知识卡片：\n标题：%s\n内容：%s\n领域：%s\n\n", card.Title, card.Content, card.Domain)
	fmt.Fprintf(&b, "对话历史：\n%s\n", history.String())
	b.WriteString(`要求：
1. 基于对话内容深入探索，问题要引人入胜、有悬念感
2. 使用悬念式开头（为什么、如何、揭秘）或包含具体数字
3. 每个问题都要有对应的好奇心标签
4. 结尾要留悬念，暗示更深层的内容

返回JSON格式：
{
  "options": [
    {"id": "unique_id", "text": "极具吸引力的悬念式问题", "curiosity": "好奇心标签", "nextTopic": "下一个话题"}
  ]
}`)
	return b.String()
}
