package types

// Tariffs holds the region-specific constants used for derived metrics.
type Tariffs struct {
	Currency              string  `json:"currency" yaml:"currency"`
	FeedInPerKWH          float64 `json:"feedInPerKWH" yaml:"feed_in_per_kwh"`
	AvoidedPurchasePerKWH float64 `json:"avoidedPurchasePerKWH" yaml:"avoided_purchase_per_kwh"`
	ExportPerKWH          float64 `json:"exportPerKWH" yaml:"export_per_kwh"`
	CO2KgPerKWH           float64 `json:"co2KgPerKWH" yaml:"co2_kg_per_kwh"`
	KmPerKWH              float64 `json:"kmPerKWH" yaml:"km_per_kwh"`
}

// DefaultTariffs returns the Irish defaults the dashboard shipped with.
func DefaultTariffs() Tariffs {
	return Tariffs{
		Currency:              "€",
		FeedInPerKWH:          0.3895,
		AvoidedPurchasePerKWH: 0.18,
		ExportPerKWH:          0.15,
		CO2KgPerKWH:           0.345,
		KmPerKWH:              5,
	}
}
