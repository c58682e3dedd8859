package match

// Options carries per-item matching directives. It replaces the loose
// metadata dictionary of earlier collectors with named fields; every field is
// optional.
type Options struct {
	// CompaniesOverride short-circuits matching entirely when non-empty:
	// the canonicalized, sorted contents are returned as-is.
	CompaniesOverride []string
	// PatternOverrides maps literal substrings to company identifiers,
	// merged over the matcher's construction-time overrides.
	PatternOverrides map[string]string
	// Hints are raw company identifiers force-included at full confidence
	// unless name-blacklisted.
	Hints []string
	// NameBlacklist removes companies by canonical name regardless of how
	// they matched.
	NameBlacklist []string
	// TermBlacklist removes any match whose matched span contains one of
	// these substrings.
	TermBlacklist []string
}

// OptionsFromMetadata extracts matching directives from a free-form metadata
// map. Malformed shapes are ignored field by field, never reported as errors.
func OptionsFromMetadata(metadata map[string]any) Options {
	var opts Options
	if len(metadata) == 0 {
		return opts
	}

	opts.CompaniesOverride = stringSlice(metadata["companies_override"])
	opts.Hints = stringSlice(metadata["company_hints"])
	opts.NameBlacklist = stringSlice(metadata["company_blacklist"])
	opts.TermBlacklist = stringSlice(metadata["company_blacklist_terms"])

	if raw, ok := metadata["company_overrides"].(map[string]any); ok {
		overrides := make(map[string]string, len(raw))
		for pattern, value := range raw {
			if company, ok := value.(string); ok && company != "" {
				overrides[pattern] = company
			}
		}
		if len(overrides) > 0 {
			opts.PatternOverrides = overrides
		}
	}

	return opts
}

func stringSlice(raw any) []string {
	switch values := raw.(type) {
	case []string:
		result := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				result = append(result, v)
			}
		}
		return result
	case []any:
		result := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}
