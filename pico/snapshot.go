package pico

import (
	"math"
	"strings"
	"time"
)

// Reading is one sensor's calibrated values from a single telemetry frame.
// Only the fields applicable to the sensor's kind are set.
type Reading struct {
	Sensor *Sensor

	Voltage     *float64
	Current     *float64
	Temperature *float64
	Pressure    *float64
	Ohm         *float64

	// Tank
	CurrentLevel      *float64
	RemainingCapacity *float64
	Percentage        *float64

	// Battery
	StateOfCharge     *float64
	CapacityNominal   *float64
	CapacityRemaining *float64
	TimeRemaining     *float64

	// Inclinometer
	Pitch *float64
	Roll  *float64
}

// Snapshot is one decoded telemetry sample across all known sensors.
// Ephemeral: rebuilt from scratch every cycle, never merged with a prior
// snapshot.
type Snapshot struct {
	Time     time.Time
	Readings []*Reading
}

// DocumentTime is the capture timestamp in the device's dashboard format.
type DocumentTime struct {
	Year   int `json:"year"` // last two digits
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// InclinometerEntry defaults to explicit nulls until both axes have been
// observed.
type InclinometerEntry struct {
	Pitch *float64 `json:"pitch"`
	Roll  *float64 `json:"roll"`
}

type TankEntry struct {
	CapacityNominal   float64  `json:"capacity_nominal"`
	CapacityRemaining *float64 `json:"capacity_remaining,omitempty"`
	Percentage        int      `json:"percentage"`
}

type BatteryEntry struct {
	CapacityNominal   *float64 `json:"capacity_nominal,omitempty"`
	CapacityRemaining *float64 `json:"capacity_remaining,omitempty"`
	StateOfCharge     *float64 `json:"state_of_charge,omitempty"`
	Current           *float64 `json:"current,omitempty"`
	Voltage           *float64 `json:"voltage,omitempty"`
}

// Document is the externally visible JSON shape of one snapshot: grouped
// readings keyed by sensor display name. Barometer is a bare number when
// observed and an empty object otherwise.
type Document struct {
	Time         DocumentTime            `json:"time"`
	Barometer    interface{}             `json:"barometer"`
	Inclinometer InclinometerEntry       `json:"inclinometer"`
	Voltage      map[string]float64      `json:"voltage"`
	Current      map[string]float64      `json:"current"`
	Temperature  map[string]float64      `json:"temperature"`
	Tank         map[string]TankEntry    `json:"tank"`
	Battery      map[string]BatteryEntry `json:"battery"`
}

// Document groups a snapshot's readings for output. Sensors without a
// display name, or with a bracketed (internal-only) name, are excluded.
func (snap *Snapshot) Document() *Document {
	doc := &Document{
		Time: DocumentTime{
			Year:   snap.Time.Year() % 100,
			Month:  int(snap.Time.Month()),
			Day:    snap.Time.Day(),
			Hour:   snap.Time.Hour(),
			Minute: snap.Time.Minute(),
			Second: snap.Time.Second(),
		},
		Barometer:   struct{}{},
		Voltage:     make(map[string]float64),
		Current:     make(map[string]float64),
		Temperature: make(map[string]float64),
		Tank:        make(map[string]TankEntry),
		Battery:     make(map[string]BatteryEntry),
	}

	for _, r := range snap.Readings {
		name := r.Sensor.Name
		if name == "" || strings.Contains(name, "[") {
			continue
		}
		switch r.Sensor.Kind {
		case KindBarometer:
			if r.Pressure != nil {
				doc.Barometer = *r.Pressure
			}
		case KindInclinometer:
			if r.Pitch != nil {
				doc.Inclinometer.Pitch = r.Pitch
			}
			if r.Roll != nil {
				doc.Inclinometer.Roll = r.Roll
			}
		case KindVolt:
			if r.Voltage != nil {
				doc.Voltage[name] = *r.Voltage
			}
		case KindCurrent:
			if r.Current != nil {
				doc.Current[name] = *r.Current
			}
		case KindThermometer:
			if r.Temperature != nil {
				doc.Temperature[name] = *r.Temperature
			}
		case KindTank:
			entry := TankEntry{
				CapacityNominal:   r.Sensor.TankCapacity,
				CapacityRemaining: r.RemainingCapacity,
			}
			if r.Percentage != nil {
				entry.Percentage = int(math.Round(*r.Percentage))
			}
			doc.Tank[name] = entry
		case KindBattery:
			doc.Battery[name] = BatteryEntry{
				CapacityNominal:   r.CapacityNominal,
				CapacityRemaining: r.CapacityRemaining,
				StateOfCharge:     r.StateOfCharge,
				Current:           r.Current,
				Voltage:           r.Voltage,
			}
			if r.Voltage != nil {
				doc.Voltage[name] = *r.Voltage
			}
		}
	}
	return doc
}
