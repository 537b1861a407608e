package pico

import "fmt"

// Profile selects the calibration convention for quantities whose scale
// differs between the two known device firmware generations: temperature
// (Celsius-relative vs absolute), battery state of charge (per-mille-ish
// divisor vs percentage divisor) and inclinometer degree folding. Which
// convention a given unit speaks is not discoverable over the protocol; it
// has to be chosen by the operator.
type Profile int

const (
	// ProfileCelsius: temperature in °C, state of charge on the /16000 raw
	// scale, inclinometer degrees as plain tenths.
	ProfileCelsius Profile = iota

	// ProfileAbsolute: temperature in kelvin, state of charge on the /160
	// raw scale, inclinometer degrees sign-folded at 60.0°.
	ProfileAbsolute
)

func (p Profile) String() string {
	switch p {
	case ProfileCelsius:
		return "celsius"
	case ProfileAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// SOCFullScale is the state-of-charge value a full battery reports under
// this profile: 1.0 on the raw /16000 scale, 100 on the percentage scale.
func (p Profile) SOCFullScale() float64 {
	if p == ProfileAbsolute {
		return 100
	}
	return 1
}

// ParseProfile maps a -profile flag value to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "celsius":
		return ProfileCelsius, nil
	case "absolute", "kelvin":
		return ProfileAbsolute, nil
	}
	return 0, fmt.Errorf("unknown calibration profile %q (want celsius or absolute)", s)
}

// calibration holds the profile-dependent decode constants.
type calibration struct {
	temperatureOffset float64 // added after the /10 scaling
	socDivisor        float64 // raw charge counts per state-of-charge unit
	capacityDivisor   float64 // joules*soc -> reported remaining capacity
	runtimeSocScale   float64 // divisor applied to current*soc in the runtime estimate
	inclineFold       bool    // fold degrees over 60.0° into negatives
}

var calibrations = map[Profile]calibration{
	ProfileCelsius: {
		temperatureOffset: 0,
		socDivisor:        16000,
		capacityDivisor:   43200,
		runtimeSocScale:   1,
		inclineFold:       false,
	},
	ProfileAbsolute: {
		temperatureOffset: 273.15,
		socDivisor:        160,
		capacityDivisor:   4320000,
		runtimeSocScale:   100,
		inclineFold:       true,
	},
}
