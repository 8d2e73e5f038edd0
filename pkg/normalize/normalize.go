// Package normalize turns vendor payloads into formatted display slots.
//
// Every function here is pure: the same RawSample, VendorKind and Tariffs
// always produce the same Reading.
package normalize

import (
	"github.com/energydash/energydash/pkg/types"
)

// Slots returns the ordered slot set produced for kind. Unknown kinds have no
// slots.
func Slots(kind types.VendorKind) []types.Slot {
	switch kind {
	case types.VendorSolaxProxy, types.VendorSolaxData:
		return append([]types.Slot(nil), solaxSlots...)
	case types.VendorMyEnergi:
		return append([]types.Slot(nil), myEnergiSlots...)
	}
	return nil
}

// Normalize parses raw according to kind. It never panics: malformed fields
// become "N/A" and envelopes reporting a failure turn every slot into "Error".
func Normalize(raw types.RawSample, kind types.VendorKind, tariffs types.Tariffs) (r types.Reading) {
	defer func() {
		if recover() != nil {
			r = Failed(kind)
		}
	}()

	switch kind {
	case types.VendorSolaxProxy, types.VendorSolaxData:
		return normalizeSolax(raw, kind, tariffs)
	case types.VendorMyEnergi:
		return normalizeMyEnergi(raw, tariffs)
	}
	return Failed(kind)
}

// Failed returns a Reading with every slot of kind set to "Error". It is what
// a transport failure renders as.
func Failed(kind types.VendorKind) types.Reading {
	return filled(kind, types.SentinelError)
}

// Unavailable returns a Reading with every slot of kind set to "N/A".
func Unavailable(kind types.VendorKind) types.Reading {
	return filled(kind, types.SentinelUnavailable)
}

func filled(kind types.VendorKind, sentinel string) types.Reading {
	slots := Slots(kind)
	r := types.Reading{
		Source: kind,
		Slots:  make([]types.SlotValue, len(slots)),
	}
	for i, s := range slots {
		r.Slots[i] = types.SlotValue{Slot: s, Text: sentinel}
	}
	return r
}

// ordered lays values out in the canonical slot order. Slots without a value
// are "N/A".
func ordered(slots []types.Slot, values map[types.Slot]string) []types.SlotValue {
	out := make([]types.SlotValue, len(slots))
	for i, s := range slots {
		t, ok := values[s]
		if !ok {
			t = types.SentinelUnavailable
		}
		out[i] = types.SlotValue{Slot: s, Text: t}
	}
	return out
}

// directionText renders the canonical grid direction.
func directionText(exporting bool) string {
	if exporting {
		return "Exporting"
	}
	return "Importing"
}
