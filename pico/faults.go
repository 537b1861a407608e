package pico

// MonitorFault flags a condition derived from decoded readings that the
// installation should act on.
type MonitorFault uint32

const (
	FaultNone MonitorFault = iota
	FaultBatteryLow
	FaultBatteryCritical
	FaultTankLow
	FaultTelemetryStale
)

type FaultSeverity int

const (
	SeverityWarning FaultSeverity = iota
	SeverityCritical
)

type FaultConfig struct {
	Code        MonitorFault
	Description string
	Severity    FaultSeverity
}

var faultConfigs = map[MonitorFault]FaultConfig{
	FaultBatteryLow:      {FaultBatteryLow, "Battery state of charge low", SeverityWarning},
	FaultBatteryCritical: {FaultBatteryCritical, "Battery state of charge critical", SeverityCritical},
	FaultTankLow:         {FaultTankLow, "Tank level low", SeverityWarning},
	FaultTelemetryStale:  {FaultTelemetryStale, "No telemetry received from device", SeverityWarning},
}

func GetFaultConfig(fault MonitorFault) (FaultConfig, bool) {
	config, ok := faultConfigs[fault]
	return config, ok
}

// lastFault is the highest defined fault code; used when iterating all
// fault states.
const lastFault = FaultTelemetryStale

// AllFaults lists every defined fault code in ascending order.
func AllFaults() []MonitorFault {
	faults := make([]MonitorFault, 0, int(lastFault))
	for f := MonitorFault(1); f <= lastFault; f++ {
		faults = append(faults, f)
	}
	return faults
}
