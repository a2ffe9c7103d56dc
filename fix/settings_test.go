package fix

import "testing"

func clearSlicerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SLIC3R_BRIDGE_FAN_SPEED", "")
	t.Setenv("SLIC3R_OVERHANG_FAN_SPEED", "")
	t.Setenv("SLIC3R_LAYER_HEIGHT", "")
}

func TestLookupSetting(t *testing.T) {
	clearSlicerEnv(t)

	gcodes := []string{
		"G1 X1 F600",
		"; prusaslicer_config = begin",
		"; bridge_fan_speed = 80",
		"; layer_height = 0.2",
		"; prusaslicer_config = end",
	}

	if v, ok := LookupSetting(gcodes, "layer_height"); !ok || v != "0.2" {
		t.Errorf("LookupSetting(layer_height) = %q, %v, want 0.2", v, ok)
	}
	if _, ok := LookupSetting(gcodes, "nozzle_diameter"); ok {
		t.Error("LookupSetting(nozzle_diameter) should not be found")
	}

	t.Setenv("SLIC3R_LAYER_HEIGHT", "0.3")
	if v, _ := LookupSetting(gcodes, "layer_height"); v != "0.3" {
		t.Errorf("LookupSetting(layer_height) = %q, want the environment value 0.3", v)
	}
}

func TestFanSpeedFromSettings(t *testing.T) {
	tests := []struct {
		name   string
		gcodes []string
		want   int
		ok     bool
	}{
		{"prusaslicer", []string{"; bridge_fan_speed = 80"}, 80, true},
		{"per filament", []string{"; bridge_fan_speed = 70,100"}, 70, true},
		{"semicolon list", []string{"; bridge_fan_speed = 65;100"}, 65, true},
		{"orca", []string{"; overhang_fan_speed = 90"}, 90, true},
		{"out of range", []string{"; bridge_fan_speed = 150"}, 0, false},
		{"garbage", []string{"; bridge_fan_speed = nil"}, 0, false},
		{"missing", []string{"G1 X1"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSlicerEnv(t)
			got, ok := FanSpeedFromSettings(tt.gcodes)
			if got != tt.want || ok != tt.ok {
				t.Errorf("FanSpeedFromSettings() = %d, %v, want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFanSpeedFromSettingsEnv(t *testing.T) {
	clearSlicerEnv(t)
	t.Setenv("SLIC3R_BRIDGE_FAN_SPEED", "60")

	if got, ok := FanSpeedFromSettings([]string{"; bridge_fan_speed = 80"}); !ok || got != 60 {
		t.Errorf("FanSpeedFromSettings() = %d, %v, want 60 from the environment", got, ok)
	}
}
