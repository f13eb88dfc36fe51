package zhishi

// DefaultDomains returns the built-in domain taxonomy: six classic
// disciplines, five counterintuitive categories, and four "fun fact"
// categories. The store seeds this set on first open; callers may
// overwrite it with SaveDomains.
func DefaultDomains() []KnowledgeDomain {
	return []KnowledgeDomain{
		{
			ID: "science", Name: "科学", Icon: "🔬", Color: "#4CAF50",
			Type:           DomainClassic,
			SubCategories:  []string{"物理", "化学", "生物", "天文", "地理"},
			Description:    "探索自然规律，理解世界运行的底层逻辑",
			AttractionTags: []string{"颠覆认知", "前沿发现"},
		},
		{
			ID: "history", Name: "历史", Icon: "📚", Color: "#795548",
			Type:           DomainClassic,
			SubCategories:  []string{"中国历史", "世界历史", "考古发现", "历史人物"},
			Description:    "穿越时空，从过去理解现在",
			AttractionTags: []string{"历史谜团", "惊人真相"},
		},
		{
			ID: "literature", Name: "文学", Icon: "📖", Color: "#E91E63",
			Type:           DomainClassic,
			SubCategories:  []string{"古典文学", "现代文学", "诗词歌赋", "名著解读"},
			Description:    "品味文字之美，感受思想的力量",
			AttractionTags: []string{"名作背后", "文人轶事"},
		},
		{
			ID: "technology", Name: "技术", Icon: "💻", Color: "#2196F3",
			Type:           DomainClassic,
			SubCategories:  []string{"人工智能", "互联网", "编程", "硬件"},
			Description:    "追踪科技前沿，看懂数字时代",
			AttractionTags: []string{"黑科技", "未来趋势"},
		},
		{
			ID: "art", Name: "艺术", Icon: "🎨", Color: "#FF9800",
			Type:           DomainClassic,
			SubCategories:  []string{"绘画", "音乐", "电影", "建筑"},
			Description:    "发现美的多种形式，提升审美眼光",
			AttractionTags: []string{"大师之作", "艺术冷知识"},
		},
		{
			ID: "philosophy", Name: "哲学", Icon: "🤔", Color: "#9C27B0",
			Type:           DomainClassic,
			SubCategories:  []string{"西方哲学", "东方哲学", "逻辑学", "伦理学"},
			Description:    "追问根本问题，训练深度思考",
			AttractionTags: []string{"思想实验", "悖论"},
		},
		{
			ID: "counterintuitive_science", Name: "反常识科学", Icon: "⚡", Color: "#FF5722",
			Type:           DomainCounterintuitive,
			SubCategories:  []string{"量子世界", "相对论", "概率错觉", "认知偏差"},
			Description:    "那些违背直觉却被证实的科学事实",
			AttractionTags: []string{"颠覆三观", "真实存在"},
		},
		{
			ID: "counterintuitive_history", Name: "历史真相", Icon: "🔄", Color: "#607D8B",
			Type:           DomainCounterintuitive,
			SubCategories:  []string{"被误解的事件", "历史翻案", "以讹传讹"},
			Description:    "教科书之外，被误传多年的历史真相",
			AttractionTags: []string{"原来如此", "误传多年"},
		},
		{
			ID: "counterintuitive_psychology", Name: "心理洞察", Icon: "🧠", Color: "#E91E63",
			Type:           DomainCounterintuitive,
			SubCategories:  []string{"行为心理", "社会心理", "决策陷阱"},
			Description:    "看透人心的运作方式，识别思维陷阱",
			AttractionTags: []string{"细思极恐", "人人中招"},
		},
		{
			ID: "counterintuitive_economics", Name: "经济悖论", Icon: "💰", Color: "#4CAF50",
			Type:           DomainCounterintuitive,
			SubCategories:  []string{"行为经济学", "博弈论", "市场怪象"},
			Description:    "违反直觉的经济规律和金钱心理",
			AttractionTags: []string{"反直觉", "钱的秘密"},
		},
		{
			ID: "counterintuitive_life", Name: "生活误区", Icon: "🏠", Color: "#FF9800",
			Type:           DomainCounterintuitive,
			SubCategories:  []string{"健康误区", "饮食真相", "生活常识"},
			Description:    "你深信不疑却完全错误的生活常识",
			AttractionTags: []string{"一直做错", "真相惊人"},
		},
		{
			ID: "universe_mysteries", Name: "宇宙之谜", Icon: "🌌", Color: "#673AB7",
			Type:           DomainFun,
			SubCategories:  []string{"黑洞", "暗物质", "地外生命", "宇宙起源"},
			Description:    "仰望星空，那些尚未解开的宇宙谜题",
			AttractionTags: []string{"浩瀚无垠", "未解之谜"},
		},
		{
			ID: "nature_wonders", Name: "自然奇观", Icon: "🦋", Color: "#4CAF50",
			Type:           DomainFun,
			SubCategories:  []string{"动物行为", "植物智慧", "极端环境", "生态奇迹"},
			Description:    "大自然远比你想象的更神奇",
			AttractionTags: []string{"叹为观止", "生命奇迹"},
		},
		{
			ID: "unsolved_mysteries", Name: "未解之谜", Icon: "🔍", Color: "#FF5722",
			Type:           DomainFun,
			SubCategories:  []string{"考古谜团", "失踪事件", "神秘现象"},
			Description:    "至今无人能解释的真实谜团",
			AttractionTags: []string{"扑朔迷离", "真实事件"},
		},
		{
			ID: "cutting_edge_tech", Name: "前沿科技", Icon: "🚀", Color: "#2196F3",
			Type:           DomainFun,
			SubCategories:  []string{"脑机接口", "基因编辑", "太空探索", "新能源"},
			Description:    "正在改变未来的尖端技术突破",
			AttractionTags: []string{"未来已来", "科幻成真"},
		},
	}
}
