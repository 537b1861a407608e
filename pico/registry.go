package pico

// SensorKind identifies the physical quantity a sensor channel reports.
type SensorKind int

const (
	KindNull SensorKind = iota
	KindVolt
	KindCurrent
	KindThermometer
	KindBarometer
	KindOhm
	KindTank
	KindBattery
	KindInclinometer
	KindUnknown
)

func (k SensorKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindVolt:
		return "volt"
	case KindCurrent:
		return "current"
	case KindThermometer:
		return "thermometer"
	case KindBarometer:
		return "barometer"
	case KindOhm:
		return "ohm"
	case KindTank:
		return "tank"
	case KindBattery:
		return "battery"
	case KindInclinometer:
		return "inclinometer"
	default:
		return "unknown"
	}
}

// Raw type codes as reported in configuration records.
const (
	typeCodeNull         = 0
	typeCodeVolt         = 1
	typeCodeCurrent      = 2
	typeCodeThermometer  = 3
	typeCodeBarometer    = 5
	typeCodeOhm          = 6
	typeCodeTank         = 8
	typeCodeBattery      = 9
	typeCodeInclinometer = 13
)

// Field numbers within a raw configuration record. Positional protocol
// convention; the meaning of fields 5..7 depends on the sensor type.
const (
	cfgFieldID              = 0
	cfgFieldTypeCode        = 1
	cfgFieldParam           = 3 // display name, or the inclinometer axis
	cfgFieldBatteryCapacity = 5
	cfgFieldFluidType       = 6
	cfgFieldTankCapacity    = 7
)

// internalVoltChannel is the device's internal reference channel; it spans
// six element slots in the telemetry array instead of one.
const internalVoltChannel = "PICO INTERNAL"

// batteryCapacityJoulesPerUnit converts the raw nominal capacity unit
// (Ah at 12 V, tenths) to joules: 36 * 12.
const batteryCapacityJoulesPerUnit = 432

// InclineAxis selects which rotation axis an inclinometer channel reports.
type InclineAxis int

const (
	AxisUnknown InclineAxis = iota
	AxisPitch
	AxisRoll
)

var fluidNames = [4]string{"Unknown", "freshWater", "fuel", "wasteWater"}
var fluidTypeNames = [4]string{"Unknown", "fresh water", "diesel", "blackwater"}

// Sensor is the static descriptor of one sensor channel. Immutable after
// registry construction.
type Sensor struct {
	ID   uint16
	Kind SensorKind
	Name string

	// Offset is the position of this sensor's first element within the flat
	// live-telemetry field array; Elements is how many consecutive slots it
	// occupies. The telemetry decoder indexes by Offset, not field number.
	Offset   int
	Elements int

	// Tank
	TankCapacity float64
	Fluid        string
	FluidType    string

	// Battery
	BatteryCapacityJoules float64

	// Inclinometer
	Axis InclineAxis
}

// Registry holds every configured sensor in enumeration order.
type Registry struct {
	Sensors []*Sensor
}

// BuildRegistry converts raw configuration records into sensor descriptors.
// Record order matters: element offsets accumulate strictly in enumeration
// order by the previous sensors' element counts. Unknown type codes degrade
// to KindUnknown with the default single slot; the device's full set of
// sensor types is not documented.
func BuildRegistry(records []Record) *Registry {
	reg := &Registry{Sensors: make([]*Sensor, 0, len(records))}
	offset := 0

	for _, record := range records {
		s := &Sensor{Kind: KindUnknown, Elements: 1, Offset: offset}
		if f, ok := record[cfgFieldID]; ok {
			s.ID = f.B
		}
		code := -1
		if f, ok := record[cfgFieldTypeCode]; ok {
			code = int(f.B)
		}

		switch code {
		case typeCodeNull:
			s.Kind = KindNull
			s.Elements = 0
		case typeCodeVolt:
			s.Kind = KindVolt
			s.Name = record[cfgFieldParam].Text
			if s.Name == internalVoltChannel {
				s.Elements = 6
			}
		case typeCodeCurrent:
			s.Kind = KindCurrent
			s.Name = record[cfgFieldParam].Text
			s.Elements = 2
		case typeCodeThermometer:
			s.Kind = KindThermometer
			s.Name = record[cfgFieldParam].Text
		case typeCodeBarometer:
			s.Kind = KindBarometer
			s.Name = record[cfgFieldParam].Text
			s.Elements = 2
		case typeCodeOhm:
			s.Kind = KindOhm
			s.Name = record[cfgFieldParam].Text
		case typeCodeTank:
			s.Kind = KindTank
			s.Name = record[cfgFieldParam].Text
			s.TankCapacity = float64(record[cfgFieldTankCapacity].B) / 10
			if idx := int(record[cfgFieldFluidType].B); idx < len(fluidNames) {
				s.Fluid = fluidNames[idx]
				s.FluidType = fluidTypeNames[idx]
			} else {
				s.Fluid = fluidNames[0]
				s.FluidType = fluidTypeNames[0]
			}
		case typeCodeBattery:
			s.Kind = KindBattery
			s.Name = record[cfgFieldParam].Text
			s.BatteryCapacityJoules = float64(record[cfgFieldBatteryCapacity].B) * batteryCapacityJoulesPerUnit
			s.Elements = 5
		case typeCodeInclinometer:
			s.Kind = KindInclinometer
			// Field 3 is numeric here: the axis selector.
			switch record[cfgFieldParam].B {
			case 1:
				s.Axis = AxisPitch
				s.Name = "pitch"
			case 2:
				s.Axis = AxisRoll
				s.Name = "roll"
			}
		}

		offset += s.Elements
		reg.Sensors = append(reg.Sensors, s)
	}
	return reg
}
