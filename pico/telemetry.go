package pico

import (
	"math"
	"time"
)

const (
	// Accepted broadcast datagram sizes, exclusive bounds. Shorter frames
	// are device chatter, longer ones are not live data.
	telemetryMinSize = 100
	telemetryMaxSize = 1000

	// Live data frames carry this marker in the high nibble of byte 6.
	telemetryMarkerOffset = 6
	telemetryMarker       = 0xB0

	// currentFoldThreshold splits the 16-bit current reading into charge
	// and discharge ranges.
	currentFoldThreshold = 25000

	// socUnknownSentinel in the raw state-of-charge slot means the battery
	// monitor has not learned the charge state yet.
	socUnknownSentinel = 65535

	// Runtime estimates that come out negative are clamped to one week.
	runtimeClampSeconds = 60 * 60 * 24 * 7

	inclineFoldThreshold = 600
)

// ValidTelemetryFrame reports whether a datagram looks like a live data
// broadcast. Frames failing the check are unrelated broadcast traffic, not
// errors.
func ValidTelemetryFrame(datagram []byte) bool {
	if len(datagram) <= telemetryMinSize || len(datagram) >= telemetryMaxSize {
		return false
	}
	return datagram[telemetryMarkerOffset]&0xF0 == telemetryMarker
}

// Decoder turns validated telemetry frames into snapshots using a fixed
// registry and calibration profile. Safe to reuse across frames; it holds
// no per-frame state.
type Decoder struct {
	log      Logger
	cal      calibration
	registry *Registry
}

func NewDecoder(registry *Registry, profile Profile, logger Logger) *Decoder {
	cal, ok := calibrations[profile]
	if !ok {
		// An unmapped profile must not produce zero divisors.
		cal = calibrations[ProfileCelsius]
	}
	return &Decoder{
		log:      logger,
		cal:      cal,
		registry: registry,
	}
}

// Decode produces a snapshot from one datagram. Sensors whose element slots
// are missing from the frame, or whose required values carry the absence
// sentinel, are skipped; the remaining sensors still decode.
func (d *Decoder) Decode(datagram []byte, now time.Time) (*Snapshot, error) {
	if !ValidTelemetryFrame(datagram) {
		return nil, ErrMalformedFrame
	}
	elements := DecodeFrame(datagram, d.log)

	snap := &Snapshot{Time: now}
	for _, s := range d.registry.Sensors {
		reading, err := d.decodeSensor(s, elements)
		if err != nil {
			if d.log != nil {
				d.log.Debug("sensor %d (%s %q): %v", s.ID, s.Kind, s.Name, err)
			}
			continue
		}
		if reading != nil {
			snap.Readings = append(snap.Readings, reading)
		}
	}
	return snap, nil
}

// element fetches the k-th element slot of a sensor from the flat field
// array.
func element(elements Record, s *Sensor, k int) (Field, error) {
	f, ok := elements[s.Offset+k]
	if !ok {
		return Field{}, &IndexOutOfRangeError{Slot: s.Offset + k}
	}
	if f.Absent {
		return Field{}, ErrValueAbsent
	}
	return f, nil
}

func (d *Decoder) decodeSensor(s *Sensor, elements Record) (*Reading, error) {
	switch s.Kind {
	case KindVolt:
		f, err := element(elements, s, 0)
		if err != nil {
			return nil, err
		}
		return &Reading{Sensor: s, Voltage: ptr(float64(f.B) / 1000)}, nil

	case KindOhm:
		f, err := element(elements, s, 0)
		if err != nil {
			return nil, err
		}
		return &Reading{Sensor: s, Ohm: ptr(float64(f.B))}, nil

	case KindThermometer:
		f, err := element(elements, s, 0)
		if err != nil {
			return nil, err
		}
		t := signedTemperature(f.B)/10 + d.cal.temperatureOffset
		return &Reading{Sensor: s, Temperature: ptr(round2(t))}, nil

	case KindBarometer:
		f, err := element(elements, s, 0)
		if err != nil {
			return nil, err
		}
		return &Reading{Sensor: s, Pressure: ptr((float64(f.B) + 65536) / 100)}, nil

	case KindCurrent:
		f, err := element(elements, s, 0)
		if err != nil {
			return nil, err
		}
		return &Reading{Sensor: s, Current: ptr(reportCurrent(foldCurrent(f.B)))}, nil

	case KindTank:
		return d.decodeTank(s, elements)

	case KindBattery:
		return d.decodeBattery(s, elements)

	case KindInclinometer:
		return d.decodeInclinometer(s, elements)
	}

	// Null slots and unknown kinds carry no decodable data.
	return nil, nil
}

func (d *Decoder) decodeTank(s *Sensor, elements Record) (*Reading, error) {
	f, err := element(elements, s, 0)
	if err != nil {
		return nil, err
	}
	r := &Reading{
		Sensor:            s,
		CurrentLevel:      ptr(float64(f.A) / 1000),
		RemainingCapacity: ptr(float64(f.B) / 10),
	}
	// A tank with unset capacity reports 0%, never a division error.
	percentage := 0.0
	if s.TankCapacity > 0 {
		percentage = float64(f.B) / 10 / s.TankCapacity * 100
	}
	r.Percentage = ptr(percentage)
	return r, nil
}

func (d *Decoder) decodeBattery(s *Sensor, elements Record) (*Reading, error) {
	charge, err := element(elements, s, 0)
	if err != nil {
		return nil, err
	}
	currentRaw, err := element(elements, s, 1)
	if err != nil {
		return nil, err
	}
	voltageRaw, err := element(elements, s, 2)
	if err != nil {
		return nil, err
	}

	soc := float64(charge.A) / d.cal.socDivisor
	current := foldCurrent(currentRaw.B)

	r := &Reading{
		Sensor:            s,
		StateOfCharge:     ptr(soc),
		CapacityNominal:   ptr(s.BatteryCapacityJoules / 43200),
		CapacityRemaining: ptr(s.BatteryCapacityJoules * soc / d.cal.capacityDivisor),
		Voltage:           ptr(float64(voltageRaw.B) / 1000),
		Current:           ptr(reportCurrent(current)),
	}

	if charge.A != socUnknownSentinel {
		// Crude discharge-runtime estimate at 12 V nominal; the epsilon
		// keeps an idle bank from dividing by zero.
		seconds := math.Round(s.BatteryCapacityJoules / 12 / (current*soc/d.cal.runtimeSocScale + 0.001))
		if seconds < 0 {
			seconds = runtimeClampSeconds
		}
		r.TimeRemaining = ptr(seconds)
	}
	return r, nil
}

func (d *Decoder) decodeInclinometer(s *Sensor, elements Record) (*Reading, error) {
	f, err := element(elements, s, 0)
	if err != nil {
		return nil, err
	}
	degrees := float64(f.B) / 10
	if d.cal.inclineFold {
		if f.B > inclineFoldThreshold {
			degrees = float64(65535-f.B) / 10
		} else {
			degrees = -degrees
		}
	}

	r := &Reading{Sensor: s}
	switch inclineAxis(s) {
	case AxisRoll:
		r.Roll = ptr(degrees)
	default:
		r.Pitch = ptr(degrees)
	}
	return r, nil
}

// inclineAxis resolves the axis of an inclinometer channel: the configured
// selector wins, otherwise element-position parity decides (even slots are
// pitch).
func inclineAxis(s *Sensor) InclineAxis {
	if s.Axis != AxisUnknown {
		return s.Axis
	}
	if s.Offset%2 == 0 {
		return AxisPitch
	}
	return AxisRoll
}

// signedTemperature folds the 16-bit temperature reading into its signed
// range, in tenths of a degree.
func signedTemperature(raw uint16) float64 {
	if raw > 32768 {
		return float64(raw) - 65536
	}
	return float64(raw)
}

// foldCurrent maps the 16-bit current reading onto a signed scale: values
// above the threshold count down from 65535 (charge), values below count up
// from zero (discharge, negated).
func foldCurrent(raw uint16) float64 {
	if raw > currentFoldThreshold {
		return float64(65535-raw) / 100
	}
	return -float64(raw) / 100
}

// reportCurrent is the value exposed in snapshots: a non-positive magnitude,
// matching the device's own display convention.
func reportCurrent(folded float64) float64 {
	return -math.Abs(folded)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
