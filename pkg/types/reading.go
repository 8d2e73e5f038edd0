package types

// RawSample is one decoded vendor payload. Fields may be absent, null, strings,
// json.Number or nested objects; nothing about its shape is guaranteed.
type RawSample map[string]any

// VendorKind selects the parser applied to a RawSample.
type VendorKind string

const (
	// VendorSolaxProxy is the {result:{...}} inverter envelope.
	VendorSolaxProxy VendorKind = "solax-proxy"
	// VendorSolaxData is the {success, data:{...}} inverter envelope.
	VendorSolaxData VendorKind = "solax-data"
	// VendorMyEnergi is the {success, eddi:{...}, zappi:{...}} controller envelope.
	VendorMyEnergi VendorKind = "myenergi"
)

// Valid reports whether k is a known vendor kind.
func (k VendorKind) Valid() bool {
	switch k {
	case VendorSolaxProxy, VendorSolaxData, VendorMyEnergi:
		return true
	}
	return false
}

// Sentinel slot texts.
const (
	// SentinelUnavailable marks a field that was legitimately absent or malformed.
	SentinelUnavailable = "N/A"
	// SentinelError marks a slot whose fetch failed outright.
	SentinelError = "Error"
)

// Slot names a display widget.
type Slot string

// SlotValue is one formatted slot update.
type SlotValue struct {
	Slot Slot   `json:"slot"`
	Text string `json:"text"`
}

// GridFlow is the canonical grid direction, independent of the vendor sign
// convention.
type GridFlow struct {
	Known       bool    `json:"known"`
	Exporting   bool    `json:"exporting"`
	MagnitudeKW float64 `json:"magnitudeKW"`
}

// Reading is the normalized output for one RawSample.
type Reading struct {
	Source   VendorKind  `json:"source"`
	Slots    []SlotValue `json:"slots"`
	Grid     GridFlow    `json:"grid"`
	PowerMix *ChartSpec  `json:"powerMix,omitempty"`
}

// Text returns the text for slot and whether the reading contains it.
func (r Reading) Text(slot Slot) (string, bool) {
	for _, sv := range r.Slots {
		if sv.Slot == slot {
			return sv.Text, true
		}
	}
	return "", false
}

// Map returns the slots as a map. Order is lost.
func (r Reading) Map() map[Slot]string {
	m := make(map[Slot]string, len(r.Slots))
	for _, sv := range r.Slots {
		m[sv.Slot] = sv.Text
	}
	return m
}
