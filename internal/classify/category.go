// Package classify assigns ingested items to a fixed set of topical
// categories from source identity, URL fragments and weighted keyword
// evidence.
package classify

import "strings"

// Category is one of the closed set of topical buckets. Classifier output is
// always a member of this set.
type Category string

const (
	CategoryFinancial     Category = "financial_reports"
	CategoryProductLaunch Category = "product_launches"
	CategoryBidding       Category = "bidding_tendering"
	CategoryNHSAPolicy    Category = "nhsa_policy"
	CategoryNHCPolicy     Category = "nhc_policy"
	CategoryIndustryMedia Category = "industry_media"
	CategoryUnknown       Category = "unknown"
)

// OrderedCategories is the declared display order, which doubles as the
// deterministic tie-break order for keyword scoring: policy-body categories
// first, then financial, product, bidding, and industry media last.
var OrderedCategories = []Category{
	CategoryNHSAPolicy,
	CategoryNHCPolicy,
	CategoryFinancial,
	CategoryProductLaunch,
	CategoryBidding,
	CategoryIndustryMedia,
}

// Valid reports whether c belongs to the closed category set (the unknown
// fallback included).
func (c Category) Valid() bool {
	switch c {
	case CategoryFinancial, CategoryProductLaunch, CategoryBidding,
		CategoryNHSAPolicy, CategoryNHCPolicy, CategoryIndustryMedia, CategoryUnknown:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

var displayNames = map[Category]map[string]string{
	CategoryFinancial:     {"en": "Financial Reports", "zh": "财报资讯"},
	CategoryProductLaunch: {"en": "Product Launches", "zh": "产品上市"},
	CategoryBidding:       {"en": "Bidding & Tendering", "zh": "招标采购"},
	CategoryNHSAPolicy:    {"en": "NHSA Policy", "zh": "医保政策"},
	CategoryNHCPolicy:     {"en": "NHC Policy", "zh": "卫健委政策"},
	CategoryIndustryMedia: {"en": "Industry Media", "zh": "行业媒体"},
	CategoryUnknown:       {"en": "Unknown", "zh": "未分类"},
}

// DisplayName returns the bilingual display name for a category; lang is
// "en" or "zh", defaulting to English.
func DisplayName(c Category, lang string) string {
	names, ok := displayNames[c]
	if !ok {
		names = displayNames[CategoryUnknown]
	}
	if name, ok := names[strings.ToLower(lang)]; ok {
		return name
	}
	return names["en"]
}
