package fix

import "math"

const (
	// Tag is appended to every fan command inserted by GcodeSpinUpBridgeFan.
	Tag = "spin up before bridge"

	MarkerCura  = ";BRIDGE"
	MarkerPrusa = ";TYPE:Bridge infill"
	MarkerOrca  = ";TYPE:Bridge"
	MarkerBambu = "; FEATURE: Bridge"

	// FanMaxPWM is the Marlin M106 S range upper bound.
	FanMaxPWM = 255

	DefaultLeadTime = 1.5
	DefaultFanSpeed = 100
)

const (
	maxUint64   = math.MaxUint64
	maxInt64    = math.MaxInt64
	absMinInt64 = 1 << 63
)

// DefaultMarkers are the bridge-begin comments emitted by the slicers we know of.
var DefaultMarkers = []string{MarkerCura, MarkerPrusa, MarkerOrca, MarkerBambu}

// SettingKeysFanSpeed are tried in order when the fan speed is taken from the slicer config.
var SettingKeysFanSpeed = []string{"bridge_fan_speed", "overhang_fan_speed"}
