package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(nil)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}
	return c
}

func TestSourceRuleBeatsKeywords(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	// cninfo is a financial source rule; the title alone would also score
	// financial, but the source rule must fire first.
	got := c.Categorize("cninfo", "迈瑞医疗2023年第三季度财报发布", "公司营收增长25%，净利润增长30%", "", "", Options{})
	if got != CategoryFinancial {
		t.Fatalf("expected %s, got %s", CategoryFinancial, got)
	}
}

func TestURLRuleUsedWhenSourceSilent(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	got := c.Categorize("unknown-portal", "", "", "", "https://www.nhsa.gov.cn/art/2023/news.html", Options{})
	if got != CategoryNHSAPolicy {
		t.Fatalf("expected %s from URL rule, got %s", CategoryNHSAPolicy, got)
	}
}

func TestKeywordScoringPerCategory(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	cases := []struct {
		name  string
		title string
		want  Category
	}{
		{"financial", "某公司发布年报，业绩大幅增长", CategoryFinancial},
		{"product", "新型检测试剂获批上市", CategoryProductLaunch},
		{"bidding", "某医院设备带量采购中标公告", CategoryBidding},
		{"nhsa", "医保局发布支付方式改革政策", CategoryNHSAPolicy},
		{"nhc", "卫健委发布临床检验指南", CategoryNHCPolicy},
		{"media", "行业深度分析：市场趋势观察", CategoryIndustryMedia},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Categorize("some-blog", tc.title, "", "", "", Options{}); got != tc.want {
				t.Fatalf("title %q: expected %s, got %s", tc.title, tc.want, got)
			}
		})
	}
}

func TestEnglishKeywords(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	got := c.Categorize("newswire", "Company reports record earnings and revenue growth", "", "", "", Options{})
	if got != CategoryFinancial {
		t.Fatalf("expected %s, got %s", CategoryFinancial, got)
	}
}

func TestDefaultsToIndustryMedia(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	got := c.Categorize("some-blog", "完全无关的标题", "没有任何线索", "普通内容", "", Options{})
	if got != CategoryIndustryMedia {
		t.Fatalf("expected fallback %s, got %s", CategoryIndustryMedia, got)
	}
}

func TestMetadataOverridePrecedence(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	got := c.Categorize("cninfo", "财报发布", "", "", "", Options{CategoryOverride: "产品上市"})
	if got != CategoryProductLaunch {
		t.Fatalf("category_override should win over source rules, got %s", got)
	}

	got = c.Categorize("cninfo", "", "", "", "", Options{Category: "bidding"})
	if got != CategoryBidding {
		t.Fatalf("supplied category should win when override absent, got %s", got)
	}

	// Unrecognized override falls through instead of failing.
	got = c.Categorize("cninfo", "", "", "", "", Options{CategoryOverride: "nonsense"})
	if got != CategoryFinancial {
		t.Fatalf("unknown override should be ignored, got %s", got)
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	cases := map[string]Category{
		"financial_reports": CategoryFinancial,
		"财报":                CategoryFinancial,
		"Financial Report":  CategoryFinancial,
		"医保政策":              CategoryNHSAPolicy,
		"NHC":               CategoryNHCPolicy,
		"行业媒体":              CategoryIndustryMedia,
	}
	for input, want := range cases {
		got, ok := c.NormalizeCategoryName(input)
		if !ok || got != want {
			t.Fatalf("normalize %q: got %s (ok=%t), want %s", input, got, ok, want)
		}
	}
	if _, ok := c.NormalizeCategoryName("不存在的类别"); ok {
		t.Fatal("unknown spelling should not normalize")
	}
}

func TestTitleWeightedOverBody(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	// One financial hit in the title (weight 5) must beat a couple of
	// product-launch hits buried in the body (weight 1 each).
	got := c.Categorize("some-blog", "公司披露年度财务数据，业绩稳定", "", "新品推出计划提及一次，上市安排待定", "", Options{})
	if got != CategoryFinancial {
		t.Fatalf("title evidence should dominate, got %s", got)
	}
}

func TestTieBreakFollowsDeclaredOrder(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	// "医保局组织招标" scores NHSA (医保局, 5) and bidding (招标, 5) equally;
	// NHSA comes first in the declared order.
	got := c.Categorize("some-blog", "医保局组织招标", "", "", "", Options{})
	if got != CategoryNHSAPolicy {
		t.Fatalf("tie should resolve to declared order (nhsa first), got %s", got)
	}
}

func TestCategorizeDeterminism(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	first := c.Categorize("portal", "行业分析与市场观察", "专家解读", "内容", "", Options{})
	for i := 0; i < 20; i++ {
		if got := c.Categorize("portal", "行业分析与市场观察", "专家解读", "内容", "", Options{}); got != first {
			t.Fatalf("categorize is not deterministic: %s vs %s", first, got)
		}
	}
}

func TestCustomRulesMerge(t *testing.T) {
	t.Parallel()

	custom := &CustomRules{
		Sources:  map[string]string{"specialnews": "financial"},
		Keywords: map[string][]string{"product_launches": {`器械注册`}},
	}
	c, err := New(custom)
	if err != nil {
		t.Fatalf("build classifier with custom rules: %v", err)
	}

	if got := c.Categorize("specialnews", "无关标题", "", "", "", Options{}); got != CategoryFinancial {
		t.Fatalf("custom source rule should apply, got %s", got)
	}
	if got := c.Categorize("some-blog", "器械注册进展顺利", "", "", "", Options{}); got != CategoryProductLaunch {
		t.Fatalf("custom keyword pattern should extend built-ins, got %s", got)
	}
}

func TestCustomRulesUnknownCategoryDropped(t *testing.T) {
	t.Parallel()

	custom := &CustomRules{
		Sources:  map[string]string{"weird": "made_up_category"},
		Keywords: map[string][]string{"made_up_category": {`anything`}},
	}
	c, err := New(custom)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}
	if got := c.Categorize("weird", "anything goes", "", "", "", Options{}); got != CategoryIndustryMedia {
		t.Fatalf("rules for unknown categories should be dropped, got %s", got)
	}
}

func TestLoadCustomRulesYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	payload := "sources:\n  specialwire: 财报\nkeywords:\n  bidding_tendering:\n    - 框架协议采购\n"
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadCustomRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	c, err := New(rules)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}
	if got := c.Categorize("specialwire", "", "", "", "", Options{}); got != CategoryFinancial {
		t.Fatalf("YAML source rule should normalize 财报 to financial, got %s", got)
	}
}

func TestDisplayNames(t *testing.T) {
	t.Parallel()

	if got := DisplayName(CategoryFinancial, "zh"); got != "财报资讯" {
		t.Fatalf("unexpected zh display name: %q", got)
	}
	if got := DisplayName(CategoryNHSAPolicy, "en"); got != "NHSA Policy" {
		t.Fatalf("unexpected en display name: %q", got)
	}
	if got := DisplayName(Category("bogus"), "en"); got != "Unknown" {
		t.Fatalf("unexpected fallback display name: %q", got)
	}
}

func TestValidCoversClosedSet(t *testing.T) {
	t.Parallel()

	for _, category := range OrderedCategories {
		if !category.Valid() {
			t.Fatalf("%s should be valid", category)
		}
	}
	if !CategoryUnknown.Valid() {
		t.Fatal("unknown fallback should be valid")
	}
	if Category("whatever").Valid() {
		t.Fatal("arbitrary value should not be valid")
	}
}
