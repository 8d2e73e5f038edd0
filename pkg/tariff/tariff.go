package tariff

import (
	"fmt"
	"os"
	"strings"

	"github.com/energydash/energydash/pkg/types"
	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"
)

// Source hands out the tariffs in effect. It is populated once flags are
// parsed and is read-only afterwards.
type Source struct {
	tariffs types.Tariffs
}

// New returns a Source serving t.
func New(t types.Tariffs) *Source {
	return &Source{tariffs: t}
}

// overrides are individual constants set on the command line. Unset fields
// keep whatever the defaults or the tariff file provided.
type overrides struct {
	Currency              *string  `json:"currency"`
	FeedInPerKWH          *float64 `json:"feedInPerKWH"`
	AvoidedPurchasePerKWH *float64 `json:"avoidedPurchasePerKWH"`
	ExportPerKWH          *float64 `json:"exportPerKWH"`
	CO2KgPerKWH           *float64 `json:"co2KgPerKWH"`
	KmPerKWH              *float64 `json:"kmPerKWH"`
}

func (o overrides) apply(t types.Tariffs) types.Tariffs {
	if o.Currency != nil {
		t.Currency = *o.Currency
	}
	if o.FeedInPerKWH != nil {
		t.FeedInPerKWH = *o.FeedInPerKWH
	}
	if o.AvoidedPurchasePerKWH != nil {
		t.AvoidedPurchasePerKWH = *o.AvoidedPurchasePerKWH
	}
	if o.ExportPerKWH != nil {
		t.ExportPerKWH = *o.ExportPerKWH
	}
	if o.CO2KgPerKWH != nil {
		t.CO2KgPerKWH = *o.CO2KgPerKWH
	}
	if o.KmPerKWH != nil {
		t.KmPerKWH = *o.KmPerKWH
	}
	return t
}

// Configured registers the tariff flags. A tariff-file, when given, is loaded
// first and the tariffs JSON flag is applied on top of it.
func Configured() *Source {
	s := &Source{tariffs: types.DefaultTariffs()}

	file := lflag.String("tariff-file", "", "YAML file with region-specific tariff constants")
	var o overrides
	lflag.JSON(&o, "tariffs", o, `JSON object overriding tariff constants (e.g. {"feedInPerKWH":0.21,"currency":"£"})`)

	lflag.Do(func() {
		t := types.DefaultTariffs()
		if *file != "" {
			loaded, err := LoadFile(*file)
			if err != nil {
				panic(err)
			}
			t = loaded
		}
		t = o.apply(t)
		if err := Validate(t); err != nil {
			panic(err)
		}
		s.tariffs = t
	})

	return s
}

// Tariffs returns the tariffs in effect.
func (s *Source) Tariffs() types.Tariffs {
	return s.tariffs
}

// LoadFile reads a YAML tariff profile. Keys missing from the file keep their
// defaults.
func LoadFile(path string) (types.Tariffs, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Tariffs{}, fmt.Errorf("failed to read tariff file: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML tariff profile on top of the defaults.
func Parse(b []byte) (types.Tariffs, error) {
	t := types.DefaultTariffs()
	if err := yaml.Unmarshal(b, &t); err != nil {
		return types.Tariffs{}, fmt.Errorf("failed to parse tariff yaml: %w", err)
	}
	if err := Validate(t); err != nil {
		return types.Tariffs{}, err
	}
	return t, nil
}

// Validate rejects negative constants and an empty currency.
func Validate(t types.Tariffs) error {
	if strings.TrimSpace(t.Currency) == "" {
		return fmt.Errorf("tariff currency is required")
	}
	for name, v := range map[string]float64{
		"feed_in_per_kwh":          t.FeedInPerKWH,
		"avoided_purchase_per_kwh": t.AvoidedPurchasePerKWH,
		"export_per_kwh":           t.ExportPerKWH,
		"co2_kg_per_kwh":           t.CO2KgPerKWH,
		"km_per_kwh":               t.KmPerKWH,
	} {
		if v < 0 {
			return fmt.Errorf("tariff %s must not be negative: %v", name, v)
		}
	}
	return nil
}
