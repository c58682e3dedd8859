package classify

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field weights for keyword scoring.
const (
	TitleWeight   = 5
	SummaryWeight = 3
	BodyWeight    = 1
)

// CustomRules extends the built-in tables at construction time. Source rules
// are appended after the built-in ones (sorted by pattern for determinism);
// keyword patterns are appended to the built-in list of their category.
type CustomRules struct {
	Sources  map[string]string   `yaml:"sources"`
	Keywords map[string][]string `yaml:"keywords"`
}

// LoadCustomRules reads a CustomRules YAML file.
func LoadCustomRules(path string) (*CustomRules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier rules %q: %w", path, err)
	}
	var rules CustomRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decode classifier rules %q: %w", path, err)
	}
	return &rules, nil
}

// Options carries per-item classification directives.
type Options struct {
	// CategoryOverride wins over Category when both normalize.
	CategoryOverride string
	// Category is a caller-suggested category spelling.
	Category string
}

// OptionsFromMetadata extracts classification directives from a free-form
// metadata map, ignoring malformed shapes.
func OptionsFromMetadata(metadata map[string]any) Options {
	var opts Options
	if len(metadata) == 0 {
		return opts
	}
	if value, ok := metadata["category_override"].(string); ok {
		opts.CategoryOverride = value
	}
	if value, ok := metadata["category"].(string); ok {
		opts.Category = value
	}
	return opts
}

type keywordRule struct {
	category Category
	patterns []*regexp.Regexp
}

// Classifier maps items to categories. Immutable and safe for concurrent use
// after construction. None of its operations return errors; malformed input
// fields are skipped, and the industry-media category is the fallback.
type Classifier struct {
	synonyms    map[string]Category
	sourceRules []sourceRule
	keywords    []keywordRule
}

// New builds a Classifier from the built-in tables plus optional custom
// rules. Custom rules naming categories outside the closed set are dropped.
func New(custom *CustomRules) (*Classifier, error) {
	c := &Classifier{
		synonyms: make(map[string]Category),
	}

	for category, aliases := range categorySynonyms {
		c.synonyms[strings.ToLower(string(category))] = category
		for _, alias := range aliases {
			c.synonyms[strings.ToLower(alias)] = category
		}
	}

	c.sourceRules = append(c.sourceRules, builtinSourceRules...)

	patternsByCategory := make(map[Category][]string, len(builtinKeywordRules))
	for category, patterns := range builtinKeywordRules {
		patternsByCategory[category] = append(patternsByCategory[category], patterns...)
	}

	if custom != nil {
		for _, pattern := range sortedRuleKeys(custom.Sources) {
			category, ok := c.NormalizeCategoryName(custom.Sources[pattern])
			if !ok {
				continue
			}
			c.sourceRules = append(c.sourceRules, sourceRule{
				pattern:  strings.ToLower(pattern),
				category: category,
			})
		}
		for name, patterns := range custom.Keywords {
			category, ok := c.NormalizeCategoryName(name)
			if !ok {
				continue
			}
			patternsByCategory[category] = append(patternsByCategory[category], patterns...)
		}
	}

	for _, category := range OrderedCategories {
		patterns := patternsByCategory[category]
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, pattern := range patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("compile keyword pattern %q for %s: %w", pattern, category, err)
			}
			compiled = append(compiled, re)
		}
		c.keywords = append(c.keywords, keywordRule{category: category, patterns: compiled})
	}

	return c, nil
}

// NormalizeCategoryName resolves a category spelling (machine name, English
// or Chinese synonym, case-insensitive exact lookup) to its canonical value.
func (c *Classifier) NormalizeCategoryName(name string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}
	category, ok := c.synonyms[normalized]
	return category, ok
}

// Categorize assigns a category: explicit overrides first, then the
// source/URL rule table, then weighted keyword scoring, and the
// industry-media catch-all when no evidence applies.
func (c *Classifier) Categorize(source, title, summary, body, url string, opts Options) Category {
	for _, supplied := range []string{opts.CategoryOverride, opts.Category} {
		if category, ok := c.NormalizeCategoryName(supplied); ok {
			return category
		}
	}

	if category, ok := c.categorizeBySource(source, url); ok {
		return category
	}

	if category, ok := c.categorizeByKeywords(title, summary, body); ok {
		return category
	}

	return CategoryIndustryMedia
}

// categorizeBySource checks the rule table against the source identifier
// first, and only when no rule matched, against the URL.
func (c *Classifier) categorizeBySource(source, url string) (Category, bool) {
	sourceLower := strings.ToLower(source)
	for _, rule := range c.sourceRules {
		if strings.Contains(sourceLower, rule.pattern) {
			return rule.category, true
		}
	}
	if url != "" {
		urlLower := strings.ToLower(url)
		for _, rule := range c.sourceRules {
			if strings.Contains(urlLower, rule.pattern) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// categorizeByKeywords sums pattern match counts weighted per field. The
// strictly highest positive score wins; ties resolve to the earliest
// category in OrderedCategories.
func (c *Classifier) categorizeByKeywords(title, summary, body string) (Category, bool) {
	if title == "" && summary == "" && body == "" {
		return "", false
	}

	best := Category("")
	bestScore := 0
	for _, rule := range c.keywords {
		score := 0
		for _, re := range rule.patterns {
			if title != "" {
				score += len(re.FindAllStringIndex(title, -1)) * TitleWeight
			}
			if summary != "" {
				score += len(re.FindAllStringIndex(summary, -1)) * SummaryWeight
			}
			if body != "" {
				score += len(re.FindAllStringIndex(body, -1)) * BodyWeight
			}
		}
		if score > bestScore {
			best = rule.category
			bestScore = score
		}
	}

	if bestScore > 0 {
		return best, true
	}
	return "", false
}

func sortedRuleKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
