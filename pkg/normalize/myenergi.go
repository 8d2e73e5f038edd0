package normalize

import (
	"github.com/energydash/energydash/pkg/types"
	"github.com/shopspring/decimal"
)

// myenergi slots in display order.
const (
	SlotEddiChargeRate     types.Slot = "eddi-charge-rate"
	SlotEddiGreenAmount    types.Slot = "eddi-green-amount"
	SlotEddiGreenSavings   types.Slot = "eddi-green-savings"
	SlotEddiImportPower    types.Slot = "eddi-import-power"
	SlotEddiGridPower      types.Slot = "eddi-grid-power"
	SlotEddiStatus         types.Slot = "eddi-status"
	SlotEddiTime           types.Slot = "eddi-time"
	SlotZappiChargeSpeed   types.Slot = "zappi-charge-speed"
	SlotZappiChargeRate    types.Slot = "zappi-charge-rate"
	SlotZappiMode          types.Slot = "zappi-mode"
	SlotZappiStatus        types.Slot = "zappi-status"
	SlotZappiChargeSession types.Slot = "zappi-charge-session"
	SlotZappiPhase         types.Slot = "zappi-phase"
	SlotZappiTime          types.Slot = "zappi-time"
	SlotZappiKms           types.Slot = "zappi-kms"

	// SlotMyEnergiGridDirection is kept apart from the inverter's
	// grid-direction so the two polls never overwrite each other.
	SlotMyEnergiGridDirection types.Slot = "myenergi-grid-direction"
)

var myEnergiSlots = []types.Slot{
	SlotEddiChargeRate,
	SlotEddiGreenAmount,
	SlotEddiGreenSavings,
	SlotEddiImportPower,
	SlotEddiGridPower,
	SlotEddiStatus,
	SlotEddiTime,
	SlotZappiChargeSpeed,
	SlotZappiChargeRate,
	SlotZappiMode,
	SlotZappiStatus,
	SlotZappiChargeSession,
	SlotZappiPhase,
	SlotZappiTime,
	SlotZappiKms,
	SlotMyEnergiGridDirection,
}

func normalizeMyEnergi(raw types.RawSample, tariffs types.Tariffs) types.Reading {
	if success, _ := raw["success"].(bool); !success {
		return Failed(types.VendorMyEnergi)
	}

	values := make(map[types.Slot]string, len(myEnergiSlots))
	r := types.Reading{Source: types.VendorMyEnergi}

	var grid decimal.Decimal
	var hasGrid bool

	if m, ok := object(raw["eddi"]); ok {
		eddi := fields(m)
		if v, ok := eddi.num("charge_rate"); ok {
			values[SlotEddiChargeRate] = kilowatts(v)
		}
		if green, ok := eddi.num("green_amount_today"); ok {
			values[SlotEddiGreenAmount] = kilowattHours(green)
			values[SlotEddiGreenSavings] = money(tariffs.Currency, green, tariffs.AvoidedPurchasePerKWH)
		}
		if v, ok := eddi.num("import_power"); ok {
			values[SlotEddiImportPower] = kilowatts(v)
		}
		if v, ok := eddi.num("grid_power"); ok {
			values[SlotEddiGridPower] = kilowatts(v.Abs())
			grid, hasGrid = v, true
		}
		if s, ok := translate(eddiStatuses, eddi.raw("status")); ok {
			values[SlotEddiStatus] = s
		}
		if s, ok := eddi.clock("time"); ok {
			values[SlotEddiTime] = s
		}
	}

	if m, ok := object(raw["zappi"]); ok {
		zappi := fields(m)
		if v, ok := zappi.num("charge_speed"); ok {
			values[SlotZappiChargeSpeed] = kilowatts(v)
		}
		if v, ok := zappi.num("charge_rate"); ok {
			values[SlotZappiChargeRate] = kilowatts(v)
		}
		if s, ok := translate(zappiModes, zappi.raw("mode")); ok {
			values[SlotZappiMode] = s
		}
		if s, ok := translate(zappiStatuses, zappi.raw("status")); ok {
			values[SlotZappiStatus] = s
		}
		if che, ok := zappi.num("che"); ok {
			values[SlotZappiChargeSession] = kilowattHours(che)
			values[SlotZappiKms] = kilometres(che, tariffs.KmPerKWH)
		}
		if s, ok := translate(zappiPhases, zappi.raw("phase")); ok {
			values[SlotZappiPhase] = s
		}
		if s, ok := zappi.clock("time"); ok {
			values[SlotZappiTime] = s
		}
		if !hasGrid {
			grid, hasGrid = zappi.num("grid_power")
		}
	}

	if hasGrid {
		// myenergi reports export as negative grid power
		exporting := grid.IsNegative()
		values[SlotMyEnergiGridDirection] = directionText(exporting)
		r.Grid = types.GridFlow{
			Known:       true,
			Exporting:   exporting,
			MagnitudeKW: grid.Abs().Shift(-3).InexactFloat64(),
		}
	}

	r.Slots = ordered(myEnergiSlots, values)
	return r
}
