package hqp

// DSPState is the parsed snapshot of a `<State/>` response (spec.md
// §3). Every *_idx field is a position into the cached enumeration of
// the same name, except active_rate_hz which is already Hz.
type DSPState struct {
	Playback      int // 0 stopped, 1 paused, 2 playing
	ModeIdx       int
	FilterIdx     int
	Filter1xIdx   *int
	FilterNxIdx   *int
	ShaperIdx     int
	RateIdx       int
	VolumeDB      float64
	ActiveModeIdx int
	ActiveRateHz  int
	Invert        bool
	Convolution   bool
	Random        bool
	Adaptive      bool
	Filter20k     bool
	Repeat        int // 0 off, 1 one, 2 all
	MatrixProfile string
}

func parseDSPState(root *element) DSPState {
	s := DSPState{
		Playback:      root.attrIntOr("state", 0),
		ModeIdx:       root.attrIntOr("mode_idx", 0),
		FilterIdx:     root.attrIntOr("filter_idx", 0),
		ShaperIdx:     root.attrIntOr("shaper_idx", 0),
		RateIdx:       root.attrIntOr("rate_idx", 0),
		VolumeDB:      root.attrFloatOr("volume_db", 0),
		ActiveModeIdx: root.attrIntOr("active_mode_idx", 0),
		ActiveRateHz:  root.attrIntOr("active_rate_hz", 0),
		Invert:        root.attrBool("invert"),
		Convolution:   root.attrBool("convolution"),
		Random:        root.attrBool("random"),
		Adaptive:      root.attrBool("adaptive"),
		Filter20k:     root.attrBool("filter_20k"),
		Repeat:        root.attrIntOr("repeat", 0),
		MatrixProfile: root.attrString("matrix_profile", ""),
	}
	if v, ok := root.attrInt("filter1x_idx"); ok {
		s.Filter1xIdx = &v
	}
	if v, ok := root.attrInt("filterNx_idx"); ok {
		s.FilterNxIdx = &v
	}
	return s
}

// DSPStatus is the parsed snapshot of a `<Status/>` response. Its
// active_* strings are unreliable display data only — the
// authoritative active mode/rate come from DSPState (spec.md §3).
type DSPStatus struct {
	PositionS      float64
	LengthS        float64
	ActiveModeName string
	ActiveFilter   string
	ActiveShaper   string
	OutputBits     int
	OutputChannels int
	OutputRateHz   int
}

func parseDSPStatus(root *element) DSPStatus {
	return DSPStatus{
		PositionS:      root.attrFloatOr("position", 0),
		LengthS:        root.attrFloatOr("length", 0),
		ActiveModeName: root.attrString("active_mode", ""),
		ActiveFilter:   root.attrString("active_filter", ""),
		ActiveShaper:   root.attrString("active_shaper", ""),
		OutputBits:     root.attrIntOr("bits", 0),
		OutputChannels: root.attrIntOr("channels", 0),
		OutputRateHz:   root.attrIntOr("rate", 0),
	}
}

// PipelineView is the high-level, index-free view external callers
// see (spec.md §4.5.4). C5 is the only place that ever looks at a
// *_idx field; every other package in this module deals exclusively
// in names and Hz.
type PipelineView struct {
	Mode         string
	Filter1x     string
	FilterNx     string
	Shaper       string
	SampleRateHz int // 0 means "auto"

	VolumeDB    float64
	VolumeRange VolumeRange

	// ActiveMode and ActiveRateHz are authoritative (from DSPState),
	// not the Status strings — spec.md §4.5.4 and Scenario 6.
	ActiveMode   string
	ActiveRateHz int

	// ActiveFilter/ActiveShaper are Status's display strings: useful for
	// showing the user what's currently audible, but not round-trip safe.
	ActiveFilter string
	ActiveShaper string
}

// buildPipelineView translates a DSPState+DSPStatus pair into a
// PipelineView using the currently cached enumerations. Unknown
// indices (a cache gone stale mid-flight) degrade to an empty name
// rather than an error — the caller still gets a usable snapshot.
func buildPipelineView(st DSPState, status DSPStatus, caches *listCaches) PipelineView {
	modes, filters, shapers, _, rates, volRange := caches.snapshot()

	filter1xIdx := st.FilterIdx
	if st.Filter1xIdx != nil {
		filter1xIdx = *st.Filter1xIdx
	}
	filterNxIdx := 0
	if st.FilterNxIdx != nil {
		filterNxIdx = *st.FilterNxIdx
	}

	mode, _ := nameForIndex(modes, st.ModeIdx)
	filter1x, _ := nameForIndex(filters, filter1xIdx)
	filterNx, _ := nameForIndex(filters, filterNxIdx)
	shaper, _ := nameForIndex(shapers, st.ShaperIdx)
	activeMode, _ := nameForIndex(modes, st.ActiveModeIdx)
	rateHz, _ := rateForIndex(rates, st.RateIdx)

	return PipelineView{
		Mode:         mode,
		Filter1x:     filter1x,
		FilterNx:     filterNx,
		Shaper:       shaper,
		SampleRateHz: rateHz,
		VolumeDB:     st.VolumeDB,
		VolumeRange:  volRange,
		ActiveMode:   activeMode,
		ActiveRateHz: st.ActiveRateHz,
		ActiveFilter: status.ActiveFilter,
		ActiveShaper: status.ActiveShaper,
	}
}
