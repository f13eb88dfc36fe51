package zhishi

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Hand-authored fallback content served when remote generation is
// unavailable. The feed stays usable offline or without an API key.

type mockSeed struct {
	title    string
	content  string
	category string
	tags     []string
}

var mockSeeds = []mockSeed{
	{
		title:    "量子纠缠：爱因斯坦口中的\"幽灵般的超距作用\"",
		content:  "两个纠缠的粒子，无论相隔多远，测量其中一个会瞬间影响另一个的状态。2017年中国墨子号卫星在1200公里距离上验证了量子纠缠，刷新了世界纪录。这种\"超距作用\"让爱因斯坦困惑终生，却成为今天量子通信的基石。更惊人的是，它不能用来超光速传递信息，但为什么？",
		category: "物理学",
		tags:     []string{"量子力学", "前沿科技"},
	},
	{
		title:    "EPR佯谬：一场持续半个世纪的物理论战",
		content:  "1935年，爱因斯坦联合波多尔斯基和罗森发表论文，试图证明量子力学是不完备的。他们设计的思想实验后来被称为EPR佯谬。直到1964年贝尔提出贝尔不等式，1982年阿斯佩实验给出判决，量子力学赢了。爱因斯坦错了吗？还是我们对\"实在\"的理解需要彻底重写？",
		category: "物理学",
		tags:     []string{"科学史", "量子力学"},
	},
	{
		title:    "斯坦福监狱实验：普通人6天变成\"恶魔\"",
		content:  "1971年，心理学家津巴多在斯坦福大学地下室搭建模拟监狱，随机分配24名大学生扮演狱警和囚犯。原定两周的实验仅6天就被迫中止：\"狱警\"开始虐待\"囚犯\"，\"囚犯\"出现严重心理崩溃。这个实验揭示了情境对人性的巨大影响，但近年也因方法问题饱受质疑。真相到底是什么？",
		category: "心理学",
		tags:     []string{"社会心理学", "经典实验"},
	},
	{
		title:    "青霉素：一次\"失误\"拯救了上亿人",
		content:  "1928年，弗莱明度假归来，发现培养皿被霉菌污染，而霉菌周围的葡萄球菌全部死亡。这个被很多人会直接扔掉的\"失败\"培养皿，催生了青霉素。但鲜为人知的是，弗莱明并没有能力提纯它，真正让青霉素量产救人的是十几年后的弗洛里和钱恩。为什么诺贝尔奖由三人分享？",
		category: "医学",
		tags:     []string{"科学史", "意外发现"},
	},
	{
		title:    "帝企鹅：在零下60度孵蛋的极限父亲",
		content:  "南极冬季，雌帝企鹅产下唯一的蛋后立刻远行觅食，雄企鹅用双脚和腹部皮褶托住蛋，在零下60度的暴风雪中站立孵化65天，期间不吃任何东西，体重减轻近一半。数千只雄企鹅挤成\"企鹅墙\"轮流换位取暖，外圈和内圈温差可达10度以上。它们如何做到精确轮换而不发生争斗？",
		category: "生物学",
		tags:     []string{"动物行为", "自然奇观"},
	},
}

// fallbackCards builds up to count cards from the built-in seed set,
// labelled with the user's first selected domain.
func fallbackCards(domains []string, count int) []KnowledgeCard {
	domain := "科学"
	if len(domains) > 0 && domains[0] != "" {
		domain = domains[0]
	}
	if count <= 0 || count > len(mockSeeds) {
		count = len(mockSeeds)
	}

	now := time.Now()
	out := make([]KnowledgeCard, 0, count)
	for _, seed := range mockSeeds[:count] {
		out = append(out, KnowledgeCard{
			ID:             "mock_" + ulid.Make().String(),
			Title:          seed.title,
			Content:        seed.content,
			Difficulty:     DifficultyMedium,
			Category:       seed.category,
			Domain:         domain,
			RelatedDomains: []string{},
			Tags:           seed.tags,
			AIGenerated:    false,
			CreatedAt:      now,
		})
	}
	return out
}

// fallbackOptions is the static option set shown when option generation
// fails mid-session.
func fallbackOptions() []CuriosityOption {
	return []CuriosityOption{
		{ID: "deep_1", Text: "背后的原理是什么", Curiosity: "深度探索", NextTopic: "原理解析"},
		{ID: "deep_2", Text: "如果反过来会怎样", Curiosity: "假设思考", NextTopic: "逆向推演"},
		{ID: "deep_3", Text: "生活中哪里用得上", Curiosity: "实践应用", NextTopic: "现实应用"},
	}
}
