package classify

// Built-in classification tables. Source rules are literal substrings checked
// case-insensitively against the source identifier first and the URL second;
// the slice order is the deterministic evaluation order. Keyword rules are
// regular expressions scored against title, summary and body with weights
// 5/3/1.

type sourceRule struct {
	pattern  string
	category Category
}

var builtinSourceRules = []sourceRule{
	// Financial
	{"cninfo", CategoryFinancial},
	{"eastmoney", CategoryFinancial},
	{"东方财富", CategoryFinancial},
	{"巨潮资讯", CategoryFinancial},
	{"investor", CategoryFinancial},
	{"financial", CategoryFinancial},
	// NHSA
	{"nhsa", CategoryNHSAPolicy},
	{"医保局", CategoryNHSAPolicy},
	{"医疗保障局", CategoryNHSAPolicy},
	// NHC
	{"nhc", CategoryNHCPolicy},
	{"卫健委", CategoryNHCPolicy},
	{"卫生健康委", CategoryNHCPolicy},
	// Bidding
	{"招标", CategoryBidding},
	{"采购", CategoryBidding},
	{"集采", CategoryBidding},
	{"bidding", CategoryBidding},
	{"tender", CategoryBidding},
	// Industry media has no source rules; it is the scoring fallback.
}

var builtinKeywordRules = map[Category][]string{
	CategoryFinancial: {
		`财报|年报|季报|业绩|营收|利润|净利`,
		`财务报告|经营报告|股东大会|投资者`,
		`financial\s+report|earnings|revenue|profit`,
		`公告.*业绩|披露.*财务`,
	},
	CategoryProductLaunch: {
		`上市|新品|推出|问世`,
		`获批|批准|注册证|NMPA|FDA`,
		`产品.*上市|新产品|产品发布`,
		`launch|approval|clearance`,
	},
	CategoryBidding: {
		`招标|中标|投标|采购`,
		`集采|集中采购|带量采购`,
		`中标.*公告|招标.*公告|成交.*公告`,
		`bidding|tender|procurement`,
	},
	CategoryNHSAPolicy: {
		`医保局|医疗保障局`,
		`医保.*政策|医保.*目录|医保.*支付`,
		`医保.*谈判|医保.*准入|医保.*价格`,
		`DRG|DIP|医保.*基金`,
	},
	CategoryNHCPolicy: {
		`卫健委|卫生健康委`,
		`卫生.*政策|医疗.*管理|医院.*管理`,
		`临床.*指南|诊疗.*规范|技术.*标准`,
		`疫情.*防控|公共卫生`,
	},
	CategoryIndustryMedia: {
		`行业.*分析|市场.*分析|趋势.*分析`,
		`专家.*解读|深度.*解析|观察`,
		`行业.*动态|市场.*动态`,
	},
}

// categorySynonyms feeds the bilingual normalization table. The canonical
// machine name of each category is added implicitly.
var categorySynonyms = map[Category][]string{
	CategoryFinancial: {
		"financial", "finance", "financial report", "financial reports",
		"financial_report", "财报", "财务", "财报资讯", "财务报告", "业绩",
	},
	CategoryProductLaunch: {
		"product", "product launch", "product_launch", "launch", "approval",
		"产品上市", "新品", "获批",
	},
	CategoryBidding: {
		"bidding", "tender", "招标", "招标采购", "集中采购", "采购",
	},
	CategoryNHSAPolicy: {
		"nhsa", "medical insurance", "medical security",
		"医保", "医保政策", "医保局",
	},
	CategoryNHCPolicy: {
		"nhc", "health commission", "卫健委", "卫生健康委",
	},
	CategoryIndustryMedia: {
		"industry", "industry media", "analysis",
		"媒体", "行业媒体", "市场分析",
	},
}
