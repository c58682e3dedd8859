// Package match identifies the companies an item of content is about. It
// layers exact, alias, keyword and fuzzy matching over the company directory,
// with overrides and blacklists to tune behaviour per source.
package match

import (
	"regexp"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"ivdwatch.dev/ivdmon/internal/directory"
)

const (
	// DefaultPartialCutoff is the minimum partial-ratio score (out of 100)
	// a fuzzy candidate must reach to count as a match.
	DefaultPartialCutoff = 90

	fuzzyCandidatesPerSegment = 3

	minSegmentRunes = 2
	maxSegmentRunes = 24
)

// Match type tags, in precedence order of the stages that produce them.
const (
	TypeOverride = "override"
	TypeHint     = "hint"
	TypeExact    = "exact"
	TypeAlias    = "alias"
	TypeKeyword  = "keyword"
	TypeFuzzy    = "fuzzy"
)

var segmentSplitter = regexp.MustCompile(`[，。、；：！？\s,.:;!?()\[\]{}]+`)

// CompanyMatch is one arbitration entry within a single matching pass. It is
// never persisted.
type CompanyMatch struct {
	Company     string
	MatchedText string
	Score       float64
	Type        string
}

type patternRule struct {
	pattern string // lower-cased substring
	company string // canonical name
}

// Config holds construction-time matcher tuning.
type Config struct {
	// PartialCutoff overrides DefaultPartialCutoff when > 0.
	PartialCutoff int
	// PatternOverrides maps literal substrings to company identifiers that
	// should always match when the substring appears in the text.
	PatternOverrides map[string]string
	// BlacklistTerms removes any match whose matched span contains one of
	// these substrings.
	BlacklistTerms []string
}

// Matcher resolves company mentions against an immutable directory. Safe for
// concurrent use after construction.
type Matcher struct {
	dir       *directory.Directory
	cutoff    int
	overrides []patternRule
	blacklist []string
}

// New builds a Matcher over dir.
func New(dir *directory.Directory, cfg Config) *Matcher {
	cutoff := cfg.PartialCutoff
	if cutoff <= 0 {
		cutoff = DefaultPartialCutoff
	}

	m := &Matcher{
		dir:    dir,
		cutoff: cutoff,
	}

	// Pattern maps iterate in sorted order so repeated runs see the same
	// rule sequence.
	for _, pattern := range sortedKeys(cfg.PatternOverrides) {
		company := cfg.PatternOverrides[pattern]
		canonical := dir.Canonical(company)
		if canonical == "" {
			canonical = company
		}
		m.overrides = append(m.overrides, patternRule{
			pattern: strings.ToLower(pattern),
			company: canonical,
		})
	}
	for _, term := range cfg.BlacklistTerms {
		if term = strings.TrimSpace(term); term != "" {
			m.blacklist = append(m.blacklist, term)
		}
	}

	return m
}

// NormalizeNames canonicalizes a list of company identifiers, preserving
// first-seen order. Identifiers the directory does not know pass through
// unchanged.
func (m *Matcher) NormalizeNames(names []string) []string {
	result := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		canonical := m.dir.Canonical(name)
		if canonical == "" {
			canonical = name
		}
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		result = append(result, canonical)
	}
	return result
}

// MatchCompanies returns the sorted, deduplicated canonical names of the
// companies mentioned in the supplied content. Title and summary weigh
// double relative to body text.
func (m *Matcher) MatchCompanies(body, title, summary string, opts Options) []string {
	if override := m.NormalizeNames(opts.CompaniesOverride); len(override) > 0 {
		sorted := append([]string(nil), override...)
		sort.Strings(sorted)
		return sorted
	}

	if body == "" && title == "" && summary == "" && len(opts.Hints) == 0 {
		return []string{}
	}

	combined := combineText(body, title, summary)
	lowered := strings.ToLower(combined)

	overrides := m.mergeOverrides(opts.PatternOverrides)
	nameBlacklist := m.canonicalSet(opts.NameBlacklist)
	termBlacklist := append(append([]string(nil), m.blacklist...), opts.TermBlacklist...)

	matches := make(map[string]CompanyMatch)

	for _, rule := range overrides {
		if strings.Contains(lowered, rule.pattern) {
			if _, banned := nameBlacklist[rule.company]; banned {
				continue
			}
			matches[rule.company] = CompanyMatch{
				Company:     rule.company,
				MatchedText: rule.pattern,
				Score:       100,
				Type:        TypeOverride,
			}
		}
	}

	for _, hint := range opts.Hints {
		canonical := m.dir.Canonical(hint)
		if canonical == "" {
			canonical = strings.TrimSpace(hint)
		}
		if canonical == "" {
			continue
		}
		if _, banned := nameBlacklist[canonical]; banned {
			continue
		}
		matches[canonical] = CompanyMatch{
			Company:     canonical,
			MatchedText: hint,
			Score:       100,
			Type:        TypeHint,
		}
	}

	for _, found := range m.matchSubstrings(m.dir.Names(), combined, lowered, 100, TypeExact) {
		if _, banned := nameBlacklist[found.Company]; banned {
			continue
		}
		if _, exists := matches[found.Company]; !exists {
			matches[found.Company] = found
		}
	}

	for _, found := range m.matchSubstrings(m.dir.Aliases(), combined, lowered, 95, TypeAlias) {
		if _, banned := nameBlacklist[found.Company]; banned {
			continue
		}
		if _, exists := matches[found.Company]; !exists {
			matches[found.Company] = found
		}
	}

	for _, found := range m.matchKeywords(lowered, nameBlacklist) {
		existing, exists := matches[found.Company]
		if !exists || found.Score > existing.Score {
			matches[found.Company] = found
		}
	}

	exclude := make(map[string]struct{}, len(matches))
	for name := range matches {
		exclude[name] = struct{}{}
	}
	for _, found := range m.matchFuzzy(lowered, exclude, nameBlacklist) {
		if _, exists := matches[found.Company]; !exists {
			matches[found.Company] = found
		}
	}

	names := make([]string, 0, len(matches))
	for name, found := range matches {
		if containsBlacklistedTerm(found.MatchedText, termBlacklist) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// combineText duplicates title and summary so entities named there outweigh
// ones merely mentioned in the body.
func combineText(body, title, summary string) string {
	parts := make([]string, 0, 5)
	if title != "" {
		parts = append(parts, title, title)
	}
	if summary != "" {
		parts = append(parts, summary, summary)
	}
	if body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, " ")
}

func (m *Matcher) mergeOverrides(extra map[string]string) []patternRule {
	merged := append([]patternRule(nil), m.overrides...)
	index := make(map[string]int, len(merged))
	for i, rule := range merged {
		index[rule.pattern] = i
	}
	for _, pattern := range sortedKeys(extra) {
		canonical := m.dir.Canonical(extra[pattern])
		if canonical == "" {
			canonical = extra[pattern]
		}
		rule := patternRule{pattern: strings.ToLower(pattern), company: canonical}
		if i, ok := index[rule.pattern]; ok {
			merged[i] = rule
			continue
		}
		merged = append(merged, rule)
	}
	return merged
}

func (m *Matcher) canonicalSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		canonical := m.dir.Canonical(name)
		if canonical == "" {
			canonical = strings.TrimSpace(name)
		}
		if canonical != "" {
			set[canonical] = struct{}{}
		}
	}
	return set
}

func (m *Matcher) matchSubstrings(entries []directory.Entry, combined, lowered string, score float64, matchType string) []CompanyMatch {
	var found []CompanyMatch
	for _, entry := range entries {
		idx := strings.Index(lowered, entry.Term)
		if idx < 0 {
			continue
		}
		matchedText := entry.Term
		if end := idx + len(entry.Term); end <= len(combined) {
			matchedText = combined[idx:end]
		}
		found = append(found, CompanyMatch{
			Company:     entry.Canonical,
			MatchedText: matchedText,
			Score:       score,
			Type:        matchType,
		})
	}
	return found
}

// matchKeywords credits a company only when at least two of its distinct
// keywords appear, so one generic term cannot attribute authorship alone.
func (m *Matcher) matchKeywords(lowered string, nameBlacklist map[string]struct{}) []CompanyMatch {
	counts := make(map[string]int)
	firstKeyword := make(map[string]string)
	var order []string

	for _, entry := range m.dir.Keywords() {
		if !strings.Contains(lowered, entry.Term) {
			continue
		}
		if _, banned := nameBlacklist[entry.Canonical]; banned {
			continue
		}
		if counts[entry.Canonical] == 0 {
			firstKeyword[entry.Canonical] = entry.Term
			order = append(order, entry.Canonical)
		}
		counts[entry.Canonical]++
	}

	var found []CompanyMatch
	for _, company := range order {
		count := counts[company]
		if count < 2 {
			continue
		}
		score := 70 + float64(count)*5
		if score > 90 {
			score = 90
		}
		found = append(found, CompanyMatch{
			Company:     company,
			MatchedText: firstKeyword[company],
			Score:       score,
			Type:        TypeKeyword,
		})
	}
	return found
}

// matchFuzzy compares candidate text segments against all not-yet-matched
// company names and aliases with a partial-ratio scorer. Once a company has
// been claimed by a segment it is excluded from later segments, so segments
// are consumed in textual order even when a later one would score higher.
func (m *Matcher) matchFuzzy(lowered string, exclude, nameBlacklist map[string]struct{}) []CompanyMatch {
	terms := make([]directory.Entry, 0, len(m.dir.Names())+len(m.dir.Aliases()))
	terms = append(terms, m.dir.Names()...)
	terms = append(terms, m.dir.Aliases()...)

	var found []CompanyMatch
	for _, segment := range extractSegments(lowered) {
		type candidate struct {
			entry directory.Entry
			score int
			pos   int
		}
		var candidates []candidate
		for pos, entry := range terms {
			if _, skip := exclude[entry.Canonical]; skip {
				continue
			}
			if _, banned := nameBlacklist[entry.Canonical]; banned {
				continue
			}
			score := fuzzy.PartialRatio(segment, entry.Term)
			if score >= m.cutoff {
				candidates = append(candidates, candidate{entry: entry, score: score, pos: pos})
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score > candidates[j].score
			}
			return candidates[i].pos < candidates[j].pos
		})
		if len(candidates) > fuzzyCandidatesPerSegment {
			candidates = candidates[:fuzzyCandidatesPerSegment]
		}
		for _, c := range candidates {
			if _, skip := exclude[c.entry.Canonical]; skip {
				continue
			}
			found = append(found, CompanyMatch{
				Company:     c.entry.Canonical,
				MatchedText: segment,
				Score:       float64(c.score),
				Type:        TypeFuzzy,
			})
			exclude[c.entry.Canonical] = struct{}{}
		}
	}
	return found
}

// extractSegments splits text on punctuation and whitespace and keeps
// segments of 2 to 24 runes as fuzzy-matching candidates.
func extractSegments(text string) []string {
	raw := segmentSplitter.Split(text, -1)
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		segment = strings.TrimSpace(segment)
		runes := len([]rune(segment))
		if runes >= minSegmentRunes && runes <= maxSegmentRunes {
			segments = append(segments, segment)
		}
	}
	return segments
}

func containsBlacklistedTerm(matchedText string, terms []string) bool {
	lowered := strings.ToLower(matchedText)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
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
