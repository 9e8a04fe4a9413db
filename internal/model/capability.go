package model

import "sort"

// Capability names a derived field or dimension the normalizer produced.
type Capability string

const (
	CapStartDate    Capability = "start_date"
	CapEndDate      Capability = "end_date"
	CapStartYear    Capability = "start_year"
	CapDuration     Capability = "duration_days"
	CapTotalCost    Capability = "total_cost"
	CapECMax        Capability = "ec_max_contribution"
	CapECContrib    Capability = "ec_contribution"
	CapNetECContrib Capability = "net_ec_contribution"
	CapGeolocation  Capability = "geolocation"
	CapKeywords     Capability = "keywords"
	CapTitle        Capability = "title"
)

// DimensionCapability is the capability that makes a filter dimension usable.
func DimensionCapability(d Dimension) Capability {
	if d == DimYear {
		return CapStartYear
	}
	return Capability("dim:" + string(d))
}

// Capabilities is the set of fields a dataset can answer questions about.
// Consumers query it instead of re-checking raw column presence.
type Capabilities map[Capability]bool

// Has reports whether every given capability is present.
func (c Capabilities) Has(caps ...Capability) bool {
	for _, cp := range caps {
		if !c[cp] {
			return false
		}
	}
	return true
}

// HasDimension reports whether a filter dimension can be offered.
func (c Capabilities) HasDimension(d Dimension) bool {
	return c[DimensionCapability(d)]
}

// List returns the capability names sorted.
func (c Capabilities) List() []string {
	out := make([]string, 0, len(c))
	for cp, ok := range c {
		if ok {
			out = append(out, string(cp))
		}
	}
	sort.Strings(out)
	return out
}
