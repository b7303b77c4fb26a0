package models

import (
	"sort"
	"time"
)

// Unit is the temperature unit declared for a condition record.
type Unit string

const (
	UnitCelsius    Unit = "C"
	UnitFahrenheit Unit = "F"
)

// Well-known field names found in the feed's condition blocks.
const (
	FieldTempF         = "temp_f"
	FieldTempC         = "temp_c"
	FieldCondition     = "condition"
	FieldHumidity      = "humidity"
	FieldIcon          = "icon"
	FieldWindCondition = "wind_condition"
	FieldDayOfWeek     = "day_of_week"
	FieldLow           = "low"
	FieldHigh          = "high"

	FieldCity            = "city"
	FieldPostalCode      = "postal_code"
	FieldForecastDate    = "forecast_date"
	FieldCurrentDateTime = "current_date_time"
	FieldUnitSystem      = "unit_system"
)

// ConditionRecord describes either current conditions or a single forecast day.
// Fields is an open attribute bag keyed by the feed's tag names; any tag the feed
// sends is kept, not only the well-known ones.
type ConditionRecord struct {
	Unit   Unit              `json:"unit"`
	Fields map[string]string `json:"fields"`
}

// NewConditionRecord returns an empty record declaring the given unit.
func NewConditionRecord(unit Unit) ConditionRecord {
	return ConditionRecord{Unit: unit, Fields: make(map[string]string)}
}

// Get returns the named field, or "" when absent.
func (r ConditionRecord) Get(name string) string {
	return r.Fields[name]
}

// Has reports whether the feed supplied the named field.
func (r ConditionRecord) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Set assigns a field, allocating the bag if needed.
func (r *ConditionRecord) Set(name, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = value
}

// Names returns the field names in sorted order.
func (r ConditionRecord) Names() []string {
	return sortedKeys(r.Fields)
}

func (r ConditionRecord) Low() string           { return r.Get(FieldLow) }
func (r ConditionRecord) High() string          { return r.Get(FieldHigh) }
func (r ConditionRecord) TempF() string         { return r.Get(FieldTempF) }
func (r ConditionRecord) TempC() string         { return r.Get(FieldTempC) }
func (r ConditionRecord) Condition() string     { return r.Get(FieldCondition) }
func (r ConditionRecord) Humidity() string      { return r.Get(FieldHumidity) }
func (r ConditionRecord) Icon() string          { return r.Get(FieldIcon) }
func (r ConditionRecord) WindCondition() string { return r.Get(FieldWindCondition) }
func (r ConditionRecord) DayOfWeek() string     { return r.Get(FieldDayOfWeek) }

func (r ConditionRecord) clone() ConditionRecord {
	out := ConditionRecord{Unit: r.Unit}
	if r.Fields != nil {
		out.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// ForecastInfo holds the feed's forecast_information block (city matched, dates, unit system).
type ForecastInfo struct {
	Fields map[string]string `json:"fields"`
}

// Get returns the named field, or "" when absent.
func (i ForecastInfo) Get(name string) string {
	return i.Fields[name]
}

// Set assigns a field, allocating the bag if needed.
func (i *ForecastInfo) Set(name, value string) {
	if i.Fields == nil {
		i.Fields = make(map[string]string)
	}
	i.Fields[name] = value
}

func (i ForecastInfo) City() string            { return i.Get(FieldCity) }
func (i ForecastInfo) PostalCode() string      { return i.Get(FieldPostalCode) }
func (i ForecastInfo) ForecastDate() string    { return i.Get(FieldForecastDate) }
func (i ForecastInfo) CurrentDateTime() string { return i.Get(FieldCurrentDateTime) }
func (i ForecastInfo) UnitSystem() string      { return i.Get(FieldUnitSystem) }

// ForecastResult is the value returned per lookup: current conditions, feed metadata,
// and one record per forecast day in provider order.
type ForecastResult struct {
	Location  string            `json:"location"`
	Info      ForecastInfo      `json:"info"`
	Current   ConditionRecord   `json:"current"`
	Days      []ConditionRecord `json:"days"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// Clone returns a deep copy; callers own the returned value exclusively.
func (f ForecastResult) Clone() ForecastResult {
	out := ForecastResult{
		Location:  f.Location,
		Current:   f.Current.clone(),
		FetchedAt: f.FetchedAt,
	}
	if f.Info.Fields != nil {
		out.Info.Fields = make(map[string]string, len(f.Info.Fields))
		for k, v := range f.Info.Fields {
			out.Info.Fields[k] = v
		}
	}
	if f.Days != nil {
		out.Days = make([]ConditionRecord, len(f.Days))
		for i, d := range f.Days {
			out.Days[i] = d.clone()
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
