package normalize

import (
	"strings"
	"time"

	"github.com/energydash/energydash/pkg/types"
	"github.com/shopspring/decimal"
)

// Solax slots in display order.
const (
	SlotYieldToday      types.Slot = "yield-today"
	SlotYieldTotal      types.Slot = "yield-total"
	SlotCO2SavedToday   types.Slot = "co2-saved-today"
	SlotCO2SavedTotal   types.Slot = "co2-saved-total"
	SlotMoneySavedToday types.Slot = "money-saved-today"
	SlotMoneySavedTotal types.Slot = "money-saved-total"
	SlotFeedInPower     types.Slot = "feed-in-power"
	SlotGridDirection   types.Slot = "grid-direction"
	SlotSolarPower      types.Slot = "solar-power"
	SlotBatteryPower    types.Slot = "battery-power"
	SlotBatteryStatus   types.Slot = "battery-status"
	SlotStateOfCharge   types.Slot = "state-of-charge"
	SlotInverterStatus  types.Slot = "inverter-status"
	SlotACPower         types.Slot = "ac-power"
	SlotHouseLoad       types.Slot = "house-load"
	SlotFeedInEnergy    types.Slot = "feed-in-energy"
	SlotConsumeEnergy   types.Slot = "consume-energy"
	SlotLastUpload      types.Slot = "last-upload"
)

var solaxSlots = []types.Slot{
	SlotYieldToday,
	SlotYieldTotal,
	SlotCO2SavedToday,
	SlotCO2SavedTotal,
	SlotMoneySavedToday,
	SlotMoneySavedTotal,
	SlotFeedInPower,
	SlotGridDirection,
	SlotSolarPower,
	SlotBatteryPower,
	SlotBatteryStatus,
	SlotStateOfCharge,
	SlotInverterStatus,
	SlotACPower,
	SlotHouseLoad,
	SlotFeedInEnergy,
	SlotConsumeEnergy,
	SlotLastUpload,
}

// quirkException is reported by the Solax cloud inside "exception" on a
// successful query that returned no data.
const quirkException = "Query success"

const solaxUploadLayout = "2006-01-02 15:04:05"

type envelopeState int

const (
	envelopeOK envelopeState = iota
	envelopeEmpty
	envelopeFailed
)

// solaxPayload unwraps either inverter envelope.
func solaxPayload(raw types.RawSample, kind types.VendorKind) (fields, envelopeState) {
	if raw == nil {
		return nil, envelopeFailed
	}
	key := "result"
	if kind == types.VendorSolaxData {
		key = "data"
	}
	payload, hasPayload := object(raw[key])

	switch kind {
	case types.VendorSolaxData:
		if success, _ := raw["success"].(bool); success && hasPayload {
			return fields(payload), envelopeOK
		}
	default:
		// the proxy passes the cloud response through and may omit success
		success, hasSuccess := raw["success"].(bool)
		if hasPayload && (!hasSuccess || success) {
			return fields(payload), envelopeOK
		}
	}

	if exception, ok := raw["exception"].(string); ok && strings.Contains(exception, quirkException) {
		return nil, envelopeEmpty
	}
	return nil, envelopeFailed
}

func normalizeSolax(raw types.RawSample, kind types.VendorKind, tariffs types.Tariffs) types.Reading {
	payload, state := solaxPayload(raw, kind)
	switch state {
	case envelopeEmpty:
		return Unavailable(kind)
	case envelopeFailed:
		return Failed(kind)
	}

	values := make(map[types.Slot]string, len(solaxSlots))
	r := types.Reading{Source: kind}

	if today, ok := payload.num("yieldtoday"); ok {
		values[SlotYieldToday] = kilowattHours(today)
		values[SlotCO2SavedToday] = kilograms(today, tariffs.CO2KgPerKWH)
		values[SlotMoneySavedToday] = money(tariffs.Currency, today, tariffs.FeedInPerKWH)
	}
	if total, ok := payload.num("yieldtotal"); ok {
		values[SlotYieldTotal] = megawattHours(total)
		values[SlotCO2SavedTotal] = kilograms(total, tariffs.CO2KgPerKWH)
		values[SlotMoneySavedTotal] = money(tariffs.Currency, total, tariffs.FeedInPerKWH)
	}

	feedIn, hasFeedIn := payload.num("feedinpower")
	if hasFeedIn {
		// positive feed-in is power leaving the house
		exporting := feedIn.IsPositive()
		magnitude := feedIn.Abs()
		values[SlotFeedInPower] = kilowatts(magnitude)
		values[SlotGridDirection] = directionText(exporting)
		r.Grid = types.GridFlow{
			Known:       true,
			Exporting:   exporting,
			MagnitudeKW: magnitude.Shift(-3).InexactFloat64(),
		}
	}

	solar, hasSolar := solarPower(payload)
	if hasSolar {
		values[SlotSolarPower] = kilowatts(solar)
	}

	if bat, ok := payload.num("batPower"); ok {
		values[SlotBatteryPower] = kilowatts(bat)
	}
	if s, ok := translate(batteryStatuses, payload.raw("batStatus")); ok {
		values[SlotBatteryStatus] = s
	}
	if soc, ok := payload.num("soc"); ok {
		values[SlotStateOfCharge] = percent(soc)
	}
	if s, ok := translate(inverterStatuses, payload.raw("inverterStatus")); ok {
		values[SlotInverterStatus] = s
	}

	if ac, ok := payload.num("acpower"); ok {
		values[SlotACPower] = kilowatts(ac)
		if hasFeedIn {
			load := ac.Sub(feedIn)
			if load.IsNegative() {
				load = decimal.Zero
			}
			values[SlotHouseLoad] = kilowatts(load)
		}
	}

	if e, ok := payload.num("feedinenergy"); ok {
		values[SlotFeedInEnergy] = kilowattHours(e)
	}
	if e, ok := payload.num("consumeenergy"); ok {
		values[SlotConsumeEnergy] = kilowattHours(e)
	}
	if t, ok := uploadClock(payload.raw("uploadTime")); ok {
		values[SlotLastUpload] = t
	}

	if hasFeedIn && hasSolar {
		r.PowerMix = &types.ChartSpec{
			Title:      "Power Mix",
			YLabel:     "kW",
			Categories: []string{"Grid", "Solar"},
			Datasets: []types.Dataset{{
				Label: "Power (kW)",
				Color: "#4caf50",
				Values: []float64{
					feedIn.Abs().Shift(-3).Round(2).InexactFloat64(),
					solar.Shift(-3).Round(2).InexactFloat64(),
				},
			}},
		}
	}

	r.Slots = ordered(solaxSlots, values)
	return r
}

// solarPower sums the string inputs. The first two strings are required;
// the third and fourth only exist on larger inverters.
func solarPower(payload fields) (decimal.Decimal, bool) {
	dc1, ok1 := payload.num("powerdc1")
	dc2, ok2 := payload.num("powerdc2")
	if !ok1 || !ok2 {
		return decimal.Zero, false
	}
	sum := dc1.Add(dc2)
	for _, k := range []string{"powerdc3", "powerdc4"} {
		if v, ok := payload.num(k); ok {
			sum = sum.Add(v)
		}
	}
	return sum, true
}

// uploadClock returns the time-of-day part of a Solax upload timestamp.
func uploadClock(v any) (string, bool) {
	s, ok := text(v)
	if !ok {
		return "", false
	}
	t, err := time.Parse(solaxUploadLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(time.TimeOnly), true
}
