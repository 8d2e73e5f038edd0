package normalize

import "fmt"

var inverterStatuses = map[string]string{
	"100": "Waiting",
	"101": "Checking",
	"102": "Normal",
	"103": "Fault",
	"104": "Permanent Fault",
	"105": "Updating",
	"106": "EPS Check",
	"107": "EPS Mode",
	"108": "Self Test",
	"109": "Idle",
	"110": "Standby",
	"111": "Pv Wake Up Battery Mode",
	"112": "Gen Check",
	"113": "Gen Run",
	"114": "Soft Start",
}

var batteryStatuses = map[string]string{
	"0": "Normal",
	"1": "Fault",
	"2": "Disconnected",
	"3": "Sleep Mode",
	"4": "Charging",
	"5": "Discharging",
}

var eddiStatuses = map[string]string{
	"0":  "Off",
	"1":  "On",
	"2":  "Heating",
	"3":  "Diverting",
	"4":  "Boosting",
	"5":  "Complete",
	"6":  "Error",
	"7":  "Locked",
	"8":  "Scheduled",
	"9":  "Waiting",
	"10": "Ready",
	"11": "Heating",
	"12": "Diverting",
	"13": "Boosting",
	"14": "Complete",
	"15": "Error",
}

var zappiModes = map[string]string{
	"1":  "Fast",
	"2":  "Eco",
	"3":  "Eco+",
	"4":  "Stop",
	"5":  "Manual",
	"6":  "Schedule",
	"7":  "Locked",
	"8":  "Waiting",
	"9":  "Ready",
	"10": "Charging",
	"11": "Complete",
	"12": "Error",
}

var zappiStatuses = map[string]string{
	"0":  "Disconnected",
	"1":  "Connected",
	"2":  "Waiting",
	"3":  "Charging",
	"4":  "Complete",
	"5":  "Error",
	"6":  "Locked",
	"7":  "Scheduled",
	"8":  "Waiting",
	"9":  "Ready",
	"10": "Charging",
	"11": "Complete",
	"12": "Error",
}

// zappi reports pha as 1/3 on current firmware and A-D on older hubs
var zappiPhases = map[string]string{
	"A": "Single Phase",
	"B": "Three Phase",
	"C": "Three Phase",
	"D": "Three Phase",
	"1": "Single Phase",
	"3": "Three Phase",
}

// translate maps a raw code through table. Absent codes are unavailable and
// codes outside the table render as "Unknown (<code>)".
func translate(table map[string]string, v any) (string, bool) {
	c, ok := code(v)
	if !ok {
		return "", false
	}
	if s, ok := table[c]; ok {
		return s, true
	}
	return fmt.Sprintf("Unknown (%s)", c), true
}
