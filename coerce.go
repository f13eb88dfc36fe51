package zhishi

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// The coercion layer turns raw, possibly malformed model output into
// validated domain records. It never returns errors: every function reports
// a present-or-absent result, and retry/fallback policy stays with the
// caller. "Zero valid records" and "nothing parseable" both come back as
// ok=false.

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// sanitizeJSON applies the ordered cleanup pipeline to text that is
// expected to contain one JSON object or array:
// trim, strip code fences, slice to the outermost '{...}' or '[...]'
// span (whichever opens first), drop BOM and carriage returns, remove
// trailing commas. Returns ok=false when neither span exists.
func sanitizeJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = stripFence(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if bs := strings.Index(s, "["); bs >= 0 && (start < 0 || bs < start) {
		if be := strings.LastIndex(s, "]"); be > bs {
			start, end = bs, be
		}
	}
	if start < 0 || end <= start {
		return "", false
	}
	s = s[start : end+1]

	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r", "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s, true
}

// stripFence removes a leading/trailing fenced-code-block marker, with or
// without a language tag.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeObject sanitizes and parses raw text into a generic JSON value.
func decodeObject(raw string) (any, bool) {
	s, ok := sanitizeJSON(raw)
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// CoerceCards normalizes model output into validated knowledge cards.
// It accepts a top-level array or an object with a "cards" array, tolerates
// alternate field names (heading for title, text for content, domain and
// category interchangeable), and fills absent fields with safe defaults.
// Records whose title or content is empty after coercion are dropped.
func CoerceCards(domains []string, raw string) ([]KnowledgeCard, bool) {
	parsed, ok := decodeObject(raw)
	if !ok {
		return nil, false
	}

	var src []any
	switch v := parsed.(type) {
	case []any:
		src = v
	case map[string]any:
		if arr, ok := v["cards"].([]any); ok {
			src = arr
		}
	}
	if src == nil {
		return nil, false
	}

	defaultLabel := fallbackCategory
	if len(domains) > 0 && domains[0] != "" {
		defaultLabel = domains[0]
	}

	now := time.Now()
	out := make([]KnowledgeCard, 0, len(src))
	for _, item := range src {
		o, ok := item.(map[string]any)
		if !ok {
			continue
		}

		title := firstString(o, "title", "heading")
		content := firstString(o, "content", "text")
		if title == "" || content == "" {
			continue
		}

		card := KnowledgeCard{
			ID:             firstString(o, "id"),
			Title:          title,
			Content:        content,
			Difficulty:     Difficulty(firstString(o, "difficulty")),
			Category:       firstString(o, "category", "domain"),
			Domain:         firstString(o, "domain", "category"),
			SubCategory:    firstString(o, "subCategory"),
			RelatedDomains: stringList(o, "relatedDomains"),
			Tags:           stringList(o, "tags"),
			AIGenerated:    true,
			CreatedAt:      now,
		}
		if card.ID == "" {
			card.ID = "gen_" + ulid.Make().String()
		}
		if !card.Difficulty.IsValid() {
			card.Difficulty = DifficultyMedium
		}
		if card.Category == "" {
			card.Category = defaultLabel
		}
		if card.Domain == "" {
			card.Domain = defaultLabel
		}
		out = append(out, card)
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// CoerceAgentMessages maps a batched multi-agent reply onto transcript
// entries. Attribution is positional against the active agent ID list; when
// the response outruns the list, trailing entries carry the AgentUnknown
// sentinel rather than crashing or being dropped.
func CoerceAgentMessages(card *KnowledgeCard, agentIDs []string, raw string) ([]AgentMessage, bool) {
	parsed, ok := decodeObject(raw)
	if !ok {
		return nil, false
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, false
	}
	src, ok := obj["responses"].([]any)
	if !ok {
		return nil, false
	}

	now := time.Now()
	out := make([]AgentMessage, 0, len(src))
	for i, item := range src {
		o, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := firstString(o, "message", "text")
		if text == "" {
			continue
		}

		id := AgentUnknown
		if i < len(agentIDs) {
			id = agentIDs[i]
		}
		name := firstString(o, "agent", "name")
		if name == "" {
			name = AgentDisplayName(id)
		}
		out = append(out, AgentMessage{
			AgentID:       id,
			AgentName:     name,
			Message:       text,
			Timestamp:     now,
			MessageType:   MessageText,
			RelatedCardID: card.ID,
		})
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// CoerceOptions normalizes model output into curiosity options, dropping
// entries without display text.
func CoerceOptions(raw string) ([]CuriosityOption, bool) {
	parsed, ok := decodeObject(raw)
	if !ok {
		return nil, false
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, false
	}
	src, ok := obj["options"].([]any)
	if !ok {
		return nil, false
	}

	out := make([]CuriosityOption, 0, len(src))
	for _, item := range src {
		o, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := firstString(o, "text")
		if text == "" {
			continue
		}
		opt := CuriosityOption{
			ID:        firstString(o, "id"),
			Text:      text,
			Curiosity: firstString(o, "curiosity"),
			NextTopic: firstString(o, "nextTopic"),
		}
		if opt.ID == "" {
			opt.ID = "opt_" + ulid.Make().String()
		}
		out = append(out, opt)
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// firstString returns the first non-empty string value among the named
// fields. Numeric IDs are accepted and stringified.
func firstString(o map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	return ""
}

// stringList extracts a []string field, silently skipping non-string items.
func stringList(o map[string]any, key string) []string {
	arr, ok := o[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
