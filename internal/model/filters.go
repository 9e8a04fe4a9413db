package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dimension is a filterable axis of the participation table.
type Dimension string

const (
	DimStatus      Dimension = "status"
	DimYear        Dimension = "year"
	DimRole        Dimension = "role"
	DimLegalBasis  Dimension = "legalbasis"
	DimName        Dimension = "name"
	DimCity        Dimension = "city"
	DimAcronym     Dimension = "acronym"
	DimCategory    Dimension = "categorie_principale"
	DimSubCategory Dimension = "sous_categorie"
)

// Dimensions lists every filter dimension in sidebar order.
var Dimensions = []Dimension{
	DimStatus, DimYear, DimRole, DimLegalBasis, DimName,
	DimCity, DimAcronym, DimCategory, DimSubCategory,
}

// Column returns the row column a dimension filters on.
// The year dimension reads the derived start year.
func (d Dimension) Column() string {
	if d == DimYear {
		return ColStartYear
	}
	return string(d)
}

// Label is the human readable name shown next to the filter widget.
func (d Dimension) Label() string {
	switch d {
	case DimStatus:
		return "Statut"
	case DimYear:
		return "Année"
	case DimRole:
		return "Rôle"
	case DimLegalBasis:
		return "Cadre légal"
	case DimName:
		return "Organisation"
	case DimCity:
		return "Ville"
	case DimAcronym:
		return "Acronyme"
	case DimCategory:
		return "Catégorie scientifique"
	case DimSubCategory:
		return "Sous-catégorie"
	}
	return string(d)
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Dimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// FilterSet restricts rows per dimension. Values are OR-combined within a
// dimension and dimensions are AND-combined. An empty value set means no
// restriction. A FilterSet is never mutated after construction.
type FilterSet struct {
	sets map[Dimension]map[string]struct{}
	// values keeps the caller's ordering for display and persistence.
	values map[Dimension][]string
}

// NewFilterSet copies accepted values per dimension into a FilterSet.
func NewFilterSet(accepted map[Dimension][]string) (FilterSet, error) {
	fs := FilterSet{
		sets:   make(map[Dimension]map[string]struct{}),
		values: make(map[Dimension][]string),
	}
	for key, vals := range accepted {
		dim, err := ParseDimension(string(key))
		if err != nil {
			return FilterSet{}, err
		}
		if len(vals) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(vals))
		var ordered []string
		for _, v := range vals {
			v = strings.TrimSpace(v)
			if _, dup := set[v]; dup {
				continue
			}
			set[v] = struct{}{}
			ordered = append(ordered, v)
		}
		fs.sets[dim] = set
		fs.values[dim] = ordered
	}
	return fs, nil
}

// HasFilter reports whether dim carries a non-empty restriction.
func (f FilterSet) HasFilter(dim Dimension) bool {
	return len(f.sets[dim]) > 0
}

// IsEmpty reports whether no dimension is restricted.
func (f FilterSet) IsEmpty() bool {
	return len(f.sets) == 0
}

// Accepts reports whether value passes the dimension's restriction.
// Callers must not pass missing values; missing never passes a restriction.
func (f FilterSet) Accepts(dim Dimension, value string) bool {
	set, ok := f.sets[dim]
	if !ok {
		return true
	}
	_, hit := set[value]
	return hit
}

// Active returns the restricted dimensions in sidebar order.
func (f FilterSet) Active() []Dimension {
	var dims []Dimension
	for _, d := range Dimensions {
		if f.HasFilter(d) {
			dims = append(dims, d)
		}
	}
	return dims
}

// Values returns a copy of the accepted values for dim.
func (f FilterSet) Values(dim Dimension) []string {
	return append([]string(nil), f.values[dim]...)
}

// Map returns a copy of the restrictions.
func (f FilterSet) Map() map[Dimension][]string {
	out := make(map[Dimension][]string, len(f.values))
	for d, v := range f.values {
		out[d] = append([]string(nil), v...)
	}
	return out
}

// String renders active restrictions deterministically.
func (f FilterSet) String() string {
	dims := f.Active()
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		vals := f.Values(d)
		sort.Strings(vals)
		parts = append(parts, fmt.Sprintf("%s=%s", d, strings.Join(vals, "|")))
	}
	return strings.Join(parts, ";")
}

// MarshalJSON encodes active restrictions as {"dimension": [values]}.
func (f FilterSet) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(f.values))
	for d, v := range f.values {
		out[string(d)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes {"dimension": [values]}.
func (f *FilterSet) UnmarshalJSON(b []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return f.fromRaw(raw)
}

// UnmarshalYAML decodes a preset file mapping dimension names to value lists.
func (f *FilterSet) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string][]string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return f.fromRaw(raw)
}

func (f *FilterSet) fromRaw(raw map[string][]string) error {
	accepted := make(map[Dimension][]string, len(raw))
	for k, v := range raw {
		dim, err := ParseDimension(k)
		if err != nil {
			return err
		}
		accepted[dim] = append(accepted[dim], v...)
	}
	fs, err := NewFilterSet(accepted)
	if err != nil {
		return err
	}
	*f = fs
	return nil
}
