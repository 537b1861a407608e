package main

import (
	"fmt"
	"strings"

	"pico-service/pico"
)

// Redis hash layout for live readings. Everything lives in one hash keyed
// by quantity and sensor display name so dashboards can HGETALL a single
// key.
const (
	redisStateKey            = "pico"
	redisNotificationChannel = "pico"
)

// redisFields flattens one snapshot into hash field/value pairs. Sensors
// without a display name, or with a bracketed internal-only name, are not
// published.
func redisFields(snap *pico.Snapshot) map[string]interface{} {
	fields := map[string]interface{}{
		"updated": snap.Time.Unix(),
	}

	for _, r := range snap.Readings {
		name := r.Sensor.Name
		if name == "" || strings.Contains(name, "[") {
			continue
		}
		switch r.Sensor.Kind {
		case pico.KindVolt:
			setField(fields, "voltage", name, r.Voltage)
		case pico.KindCurrent:
			setField(fields, "current", name, r.Current)
		case pico.KindThermometer:
			setField(fields, "temperature", name, r.Temperature)
		case pico.KindOhm:
			setField(fields, "ohm", name, r.Ohm)
		case pico.KindBarometer:
			if r.Pressure != nil {
				fields["barometer:pressure"] = *r.Pressure
			}
		case pico.KindInclinometer:
			if r.Pitch != nil {
				fields["inclinometer:pitch"] = *r.Pitch
			}
			if r.Roll != nil {
				fields["inclinometer:roll"] = *r.Roll
			}
		case pico.KindTank:
			setField(fields, "tank", name+":level", r.CurrentLevel)
			setField(fields, "tank", name+":remaining", r.RemainingCapacity)
			setField(fields, "tank", name+":percentage", r.Percentage)
		case pico.KindBattery:
			setField(fields, "battery", name+":soc", r.StateOfCharge)
			setField(fields, "battery", name+":voltage", r.Voltage)
			setField(fields, "battery", name+":current", r.Current)
			setField(fields, "battery", name+":remaining", r.CapacityRemaining)
			setField(fields, "battery", name+":runtime", r.TimeRemaining)
			setField(fields, "voltage", name, r.Voltage)
		}
	}
	return fields
}

func setField(fields map[string]interface{}, quantity, name string, value *float64) {
	if value != nil {
		fields[fmt.Sprintf("%s:%s", quantity, name)] = *value
	}
}
