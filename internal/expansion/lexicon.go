package expansion

import "regexp"

// Venture-domain lexicon: synonym table, domain-term buckets, intent
// patterns and contextual tags. Mixed Chinese/English on purpose — the
// knowledge base and its users are bilingual.

// synonymKeys fixes iteration order so expansion output is
// deterministic for a given query.
var synonymKeys = []string{"ai", "投资", "公司", "趋势", "估值", "轮次", "独角兽", "赛道", "平台"}

var synonymTable = map[string][]string{
	"ai":  {"人工智能", "artificial intelligence", "机器学习", "ml", "deep learning", "深度学习"},
	"投资":  {"funding", "investment", "融资", "资金", "capital", "venture", "风投"},
	"公司":  {"company", "startup", "初创企业", "企业", "firm", "团队", "team"},
	"趋势":  {"trend", "direction", "方向", "发展", "走势", "outlook", "前景"},
	"估值":  {"valuation", "价值", "value", "市值", "worth", "评估"},
	"轮次":  {"round", "阶段", "stage", "series", "融资轮"},
	"独角兽": {"unicorn", "十亿美元", "billion-dollar", "高估值"},
	"赛道":  {"sector", "领域", "domain", "field", "industry", "行业"},
	"平台":  {"platform", "系统", "system", "服务", "service"},
}

var domainTerms = map[string][]string{
	"investment":         {"pre-seed", "seed", "series-a", "series-b", "series-c", "ipo", "exit", "portfolio", "due-diligence"},
	"ai-technology":      {"llm", "gpt", "transformer", "neural-network", "computer-vision", "nlp", "robotics", "autonomous"},
	"market-analysis":    {"market-size", "competition", "moat", "growth-rate", "tam", "sam", "som", "market-share"},
	"startup-evaluation": {"product-market-fit", "mvp", "traction", "revenue", "burn-rate", "runway", "kpi", "metrics"},
}

// intentDomains maps each intent to the 1-2 domain-term buckets that feed
// its expansion.
var intentDomains = map[Intent][]string{
	IntentCompanySearch:      {"investment", "startup-evaluation"},
	IntentInvestmentAnalysis: {"investment", "market-analysis"},
	IntentMarketTrends:       {"market-analysis", "ai-technology"},
	IntentTechnologyInfo:     {"ai-technology", "startup-evaluation"},
	IntentFundingInfo:        {"investment", "startup-evaluation"},
	IntentTeamEvaluation:     {"startup-evaluation", "investment"},
	IntentGeneral:            {"investment", "ai-technology"},
}

var contextTags = map[Intent][]string{
	IntentCompanySearch:      {"AI创投生态系统", "初创企业数据库", "投资组合分析"},
	IntentInvestmentAnalysis: {"投资趋势分析", "市场数据", "风险评估"},
	IntentMarketTrends:       {"行业洞察", "技术发展", "竞争分析"},
	IntentTechnologyInfo:     {"技术评估", "AI能力分析", "产品技术栈"},
	IntentFundingInfo:        {"融资数据", "投资轮次", "估值分析"},
	IntentTeamEvaluation:     {"团队背景", "创始人经历", "管理能力"},
	IntentGeneral:            {"AI创投知识库", "SVTR平台数据"},
}

var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "有": {}, "和": {}, "与": {}, "或": {},
	"如何": {}, "什么": {}, "哪些": {}, "怎么": {}, "为什么": {}, "我": {}, "你": {},
	"他": {}, "她": {}, "这": {}, "那": {}, "一个": {}, "我们": {}, "哪里": {}, "谁": {},
	"当": {}, "如果": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "have": {},
	"how": {}, "what": {}, "which": {}, "where": {}, "when": {}, "who": {}, "why": {},
}

// tokenPattern accepts Latin word characters and CJK ideographs in one
// class so mixed-language queries tokenize uniformly.
var tokenPattern = regexp.MustCompile(`[0-9A-Za-z_]+|\p{Han}+`)

type intentRule struct {
	pattern *regexp.Regexp
	intent  Intent
}

// intentRules is ordered; the first matching rule wins.
var intentRules = []intentRule{
	{regexp.MustCompile(`(.+)公司|(.+)企业|(.+)团队`), IntentCompanySearch},
	{regexp.MustCompile(`(?i)search.+company|find.+startup`), IntentCompanySearch},
	{regexp.MustCompile(`哪些公司|什么企业|哪家公司`), IntentCompanySearch},
	{regexp.MustCompile(`投资.*分析|投资.*趋势|投资.*机会`), IntentInvestmentAnalysis},
	{regexp.MustCompile(`(?i)investment.+analysis|investment.+trend`), IntentInvestmentAnalysis},
	{regexp.MustCompile(`融资.*情况|融资.*数据`), IntentInvestmentAnalysis},
	{regexp.MustCompile(`市场趋势|行业趋势|发展趋势`), IntentMarketTrends},
	{regexp.MustCompile(`(?i)market.+trend|industry.+trend`), IntentMarketTrends},
	{regexp.MustCompile(`未来.*发展|前景.*如何`), IntentMarketTrends},
	{regexp.MustCompile(`技术.*介绍|技术.*分析|ai.*技术`), IntentTechnologyInfo},
	{regexp.MustCompile(`(?i)technology|technical|ai.+capability`), IntentTechnologyInfo},
	{regexp.MustCompile(`算法|模型|架构`), IntentTechnologyInfo},
	{regexp.MustCompile(`融资.*轮次|融资.*金额|投资.*轮次`), IntentFundingInfo},
	{regexp.MustCompile(`(?i)funding.+round|series.+[abc]`), IntentFundingInfo},
	{regexp.MustCompile(`获得.*投资|完成.*融资`), IntentFundingInfo},
	{regexp.MustCompile(`团队.*评估|如何.*识别|怎么.*判断`), IntentTeamEvaluation},
	{regexp.MustCompile(`(?i)evaluate.+team|assess.+founder`), IntentTeamEvaluation},
	{regexp.MustCompile(`创始人|团队背景|管理层`), IntentTeamEvaluation},
}

var suggestionTemplates = map[Intent][]string{
	IntentCompanySearch: {
		"{keyword}领域的独角兽公司有哪些？",
		"最新获得融资的{keyword}公司",
		"{keyword}赛道的头部企业分析",
	},
	IntentInvestmentAnalysis: {
		"{keyword}投资趋势分析",
		"{keyword}领域的投资机会和风险",
		"{keyword}市场的资金流向",
	},
	IntentMarketTrends: {
		"{keyword}行业未来发展趋势",
		"{keyword}市场竞争格局分析",
		"{keyword}技术发展前景",
	},
}
