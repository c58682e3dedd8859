// Package directory loads the reference dataset of known IVD companies and
// builds the lookup tables the company matcher runs against. The dataset is
// loaded once; a Directory is immutable after construction.
package directory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed companies.json
var defaultDatasetJSON []byte

// Company is one entry of the reference dataset. Name is the canonical
// spelling; aliases and keywords map many-to-one back to it.
type Company struct {
	Name        string   `json:"name"`
	EnglishName string   `json:"english_name,omitempty"`
	StockCode   string   `json:"stock_code,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

type dataset struct {
	Companies []Company `json:"companies"`
}

// Entry is one lookup-table row: a lower-cased search term and the canonical
// name it resolves to. Entries preserve dataset insertion order so every pass
// over a table is deterministic.
type Entry struct {
	Term      string
	Canonical string
}

// Directory holds the parsed dataset and its derived lookup tables.
type Directory struct {
	companies []Company

	names    []Entry // canonical + english names
	aliases  []Entry
	keywords []Entry

	nameIndex    map[string]string
	aliasIndex   map[string]string
	keywordIndex map[string]string
}

// Load reads a company dataset from path. A missing or unreadable file is a
// construction error; the matcher cannot run without its directory.
func Load(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company dataset %q: %w", path, err)
	}
	return Parse(raw)
}

// Default returns a Directory built from the embedded dataset.
func Default() (*Directory, error) {
	return Parse(defaultDatasetJSON)
}

// Parse builds a Directory from raw dataset JSON.
func Parse(raw []byte) (*Directory, error) {
	var data dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode company dataset: %w", err)
	}

	d := &Directory{
		companies:    data.Companies,
		nameIndex:    make(map[string]string),
		aliasIndex:   make(map[string]string),
		keywordIndex: make(map[string]string),
	}

	for _, company := range data.Companies {
		name := strings.TrimSpace(company.Name)
		if name == "" {
			return nil, fmt.Errorf("company dataset entry without a name")
		}

		d.addName(strings.ToLower(name), name)
		if english := strings.TrimSpace(company.EnglishName); english != "" {
			d.addName(strings.ToLower(english), name)
		}
		for _, alias := range company.Aliases {
			if alias = strings.TrimSpace(alias); alias != "" {
				d.addAlias(strings.ToLower(alias), name)
			}
		}
		for _, keyword := range company.Keywords {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				d.addKeyword(strings.ToLower(keyword), name)
			}
		}
	}

	return d, nil
}

func (d *Directory) addName(term, canonical string) {
	if _, exists := d.nameIndex[term]; !exists {
		d.names = append(d.names, Entry{Term: term, Canonical: canonical})
	}
	// Collisions resolve last-loaded-wins, same as index assignment below.
	d.nameIndex[term] = canonical
}

func (d *Directory) addAlias(term, canonical string) {
	if _, exists := d.aliasIndex[term]; !exists {
		d.aliases = append(d.aliases, Entry{Term: term, Canonical: canonical})
	}
	d.aliasIndex[term] = canonical
}

func (d *Directory) addKeyword(term, canonical string) {
	if _, exists := d.keywordIndex[term]; !exists {
		d.keywords = append(d.keywords, Entry{Term: term, Canonical: canonical})
	}
	d.keywordIndex[term] = canonical
}

// Names returns the canonical/english-name entries in insertion order.
func (d *Directory) Names() []Entry { return d.names }

// Aliases returns the alias entries in insertion order.
func (d *Directory) Aliases() []Entry { return d.aliases }

// Keywords returns the keyword entries in insertion order.
func (d *Directory) Keywords() []Entry { return d.keywords }

// Canonical resolves a company identifier (canonical name, english name, or
// alias, case-insensitive) to its canonical name. Returns "" when unknown.
func (d *Directory) Canonical(identifier string) string {
	lowered := strings.ToLower(strings.TrimSpace(identifier))
	if lowered == "" {
		return ""
	}
	if name, ok := d.nameIndex[lowered]; ok {
		return name
	}
	if name, ok := d.aliasIndex[lowered]; ok {
		return name
	}
	return ""
}

// Info returns the dataset entry for a canonical company name.
func (d *Directory) Info(canonicalName string) (Company, bool) {
	for _, company := range d.companies {
		if company.Name == canonicalName {
			return company, true
		}
	}
	return Company{}, false
}

// Companies returns the dataset entries in their declared order.
func (d *Directory) Companies() []Company {
	out := make([]Company, len(d.companies))
	copy(out, d.companies)
	return out
}

// Len reports how many companies the dataset holds.
func (d *Directory) Len() int { return len(d.companies) }
