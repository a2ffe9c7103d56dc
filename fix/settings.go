package fix

import (
	"math"
	"os"
	"strconv"
	"strings"
)

// settingsTail is how many lines from the end are searched for the slicer config block.
const settingsTail = 1000

// LookupSetting returns a slicer setting. PrusaSlicer exports its config to
// post-processing scripts as SLIC3R_<KEY> variables; otherwise the
// "; key = value" block at the tail of the G-code is searched.
func LookupSetting(gcodes []string, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := os.LookupEnv("SLIC3R_" + strings.ToUpper(key)); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}

	i := len(gcodes) - 1
	j := max(i-settingsTail, 0)
	for ; i >= j; i-- {
		if v, ok := getSetting(strings.TrimSpace(gcodes[i]), keys...); ok {
			return v, true
		}
	}
	return "", false
}

// FanSpeedFromSettings reads the bridge fan speed in percent the slicer was
// configured with. Per-filament lists use the first value.
func FanSpeedFromSettings(gcodes []string) (int, bool) {
	v, ok := LookupSetting(gcodes, SettingKeysFanSpeed...)
	if !ok {
		return 0, false
	}
	speed, err := strconv.ParseFloat(split(v)[0], 64)
	if err != nil || speed < 0 || speed > 100 {
		return 0, false
	}
	return int(math.Round(speed)), true
}
