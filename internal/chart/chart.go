package chart

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the chart style of a panel.
type Kind string

const (
	KindLine    Kind = "line"
	KindBar     Kind = "bar"
	KindBarh    Kind = "barh"
	KindKDE     Kind = "kde"
	KindDensity Kind = "density"
	KindArea    Kind = "area"
	KindHist    Kind = "hist"
	KindBox     Kind = "box"
	KindPie     Kind = "pie"
	KindScatter Kind = "scatter"
	KindHexbin  Kind = "hexbin"
)

// Kinds lists every supported chart kind.
var Kinds = []Kind{
	KindLine, KindBar, KindBarh, KindKDE, KindDensity,
	KindArea, KindHist, KindBox, KindPie, KindScatter, KindHexbin,
}

// ParseKind validates a chart kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if Kind(s) == k {
			return k, nil
		}
	}
	return "", &InvalidKindError{Kinds: []string{s}}
}

// InvalidKindError reports chart kinds outside the supported set. Kinds
// lists every offending name.
type InvalidKindError struct {
	Kinds []string
}

func (e *InvalidKindError) Error() string {
	quoted := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		quoted[i] = strconv.Quote(k)
	}
	allowed := make([]string, len(Kinds))
	for i, k := range Kinds {
		allowed[i] = string(k)
	}
	if len(quoted) == 1 {
		return fmt.Sprintf("invalid chart kind %s, allowed kinds are %s",
			quoted[0], strings.Join(allowed, ", "))
	}
	return fmt.Sprintf("invalid chart kinds %s, allowed kinds are %s",
		strings.Join(quoted, ", "), strings.Join(allowed, ", "))
}

// Panel describes one chart: which category column to count and how to draw
// the distribution.
type Panel struct {
	Category string `yaml:"category"`
	Kind     string `yaml:"kind"`
	Title    string `yaml:"title"`
}

// PanelsFromLists pairs parallel category, kind and title lists into panels.
// The lists must be non-empty and equally long.
func PanelsFromLists(categories, kinds, titles []string) ([]Panel, error) {
	if len(kinds) != len(categories) || len(titles) != len(categories) {
		return nil, fmt.Errorf("want matching list lengths, got %d categories, %d kinds, %d titles",
			len(categories), len(kinds), len(titles))
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no panels requested")
	}

	panels := make([]Panel, len(categories))
	for i := range categories {
		panels[i] = Panel{Category: categories[i], Kind: kinds[i], Title: titles[i]}
	}
	return panels, nil
}

// panelsFile mirrors the YAML panels document.
type panelsFile struct {
	Panels []Panel `yaml:"panels"`
}

// LoadPanels reads panel definitions from a YAML file.
func LoadPanels(path string) ([]Panel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panels file: %w", err)
	}

	var pf panelsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse panels file %s: %w", path, err)
	}
	if len(pf.Panels) == 0 {
		return nil, fmt.Errorf("panels file %s defines no panels", path)
	}

	return pf.Panels, nil
}

// ValueCount is one distinct value and how many times it appears.
type ValueCount struct {
	Value string
	Count int
}

// CountValues tallies distinct values ordered by descending count. Ties keep
// the order in which values first appear.
func CountValues(vals []string) []ValueCount {
	counts := make(map[string]int, len(vals))
	order := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(order))
	for _, v := range order {
		out = append(out, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	return out
}
