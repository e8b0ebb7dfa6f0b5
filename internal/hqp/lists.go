package hqp

import (
	"fmt"
	"sync"
)

// ListItem is one entry of a DSP enumeration (modes, filters, shapers).
// index and value need not agree — spec.md §4.5.3 — and only index is
// meaningful on the live wire protocol; value survives purely as a
// stable identifier for clients that cache lists across restarts.
type ListItem struct {
	Index int
	Value int
	Name  string
}

// RateItem is a sample-rate enumeration entry: index plus the rate in
// Hz, with no separate value field (spec.md §3).
type RateItem struct {
	Index  int
	RateHz int
}

// listCaches holds the enumerations refreshed on every (re)connect
// (spec.md §4.5.1, §5: "Adapter caches ... are rebuilt on each
// (re)connect rather than updated incrementally, to avoid
// divergence"). Reads are served from here; callers never parse wire
// XML themselves.
type listCaches struct {
	mu             sync.RWMutex
	modes          []ListItem
	filters        []ListItem
	shapers        []ListItem
	rates          []RateItem
	matrixProfiles []ListItem
	volumeRange    VolumeRange
}

func (c *listCaches) set(modes, filters, shapers []ListItem, rates []RateItem, profiles []ListItem, vr VolumeRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes = modes
	c.filters = filters
	c.shapers = shapers
	c.rates = rates
	c.matrixProfiles = profiles
	c.volumeRange = vr
}

func (c *listCaches) snapshot() (modes, filters, shapers, profiles []ListItem, rates []RateItem, vr VolumeRange) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modes, c.filters, c.shapers, c.matrixProfiles, c.rates, c.volumeRange
}

// VolumeRange describes the DSP's volume control bounds, returned by
// the VolumeRange command (spec.md §4.5.2).
type VolumeRange struct {
	MinDB    float64
	MaxDB    float64
	StepDB   float64
	Enabled  bool
	Adaptive bool
}

// parseListItems collects every child of root named itemElem into
// ListItems. This is the single code path for both response shapes
// spec.md §4.5.2 describes: root's children are either all present on
// one line (shape a) or spread across many lines the transport has
// already reassembled into one document (shape b) — by the time a
// caller has an *element, the shape no longer matters.
func parseListItems(root *element, itemElem string) []ListItem {
	children := root.childrenNamed(itemElem)
	items := make([]ListItem, 0, len(children))
	for _, c := range children {
		items = append(items, ListItem{
			Index: c.attrIntOr("index", 0),
			Value: c.attrIntOr("value", 0),
			Name:  c.attrString("name", ""),
		})
	}
	return items
}

func parseRateItems(root *element) []RateItem {
	children := root.childrenNamed("RatesItem")
	items := make([]RateItem, 0, len(children))
	for _, c := range children {
		items = append(items, RateItem{
			Index:  c.attrIntOr("index", 0),
			RateHz: c.attrIntOr("rate", 0),
		})
	}
	return items
}

func parseVolumeRange(root *element) VolumeRange {
	return VolumeRange{
		MinDB:    root.attrFloatOr("min", 0),
		MaxDB:    root.attrFloatOr("max", 0),
		StepDB:   root.attrFloatOr("step", 0),
		Enabled:  root.attrBool("enabled"),
		Adaptive: root.attrBool("adaptive"),
	}
}

// nameForIndex looks up the domain name of the item at idx, the
// translation PipelineView needs to hide indices from callers
// (spec.md §4.5.4).
func nameForIndex(items []ListItem, idx int) (string, bool) {
	for _, it := range items {
		if it.Index == idx {
			return it.Name, true
		}
	}
	return "", false
}

// indexForName resolves a domain name back to its wire index — the
// direction set_pipeline uses (spec.md §4.5.4). Returns an error
// naming the unknown value rather than a bare bool so callers can
// surface it directly.
func indexForName(items []ListItem, name string) (int, error) {
	for _, it := range items {
		if it.Name == name {
			return it.Index, nil
		}
	}
	return 0, fmt.Errorf("hqp: %q is not a known enumeration value", name)
}

func rateForIndex(items []RateItem, idx int) (int, bool) {
	for _, it := range items {
		if it.Index == idx {
			return it.RateHz, true
		}
	}
	return 0, false
}

func indexForRate(items []RateItem, hz int) (int, error) {
	for _, it := range items {
		if it.RateHz == hz {
			return it.Index, nil
		}
	}
	return 0, fmt.Errorf("hqp: %d Hz is not in the rate enumeration", hz)
}
