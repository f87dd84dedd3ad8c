package camera

const (
	PresetDefault = "default"
	PresetLow     = "low"
	PresetHD      = "hd"
	PresetNight   = "night"
)

// Presets returns the named configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowBandwidthConfig(),
		PresetHD:      HDConfig(),
		PresetNight:   NightConfig(),
	}
}

// PresetNames lists preset names in display order.
func PresetNames() []string {
	return []string{PresetDefault, PresetLow, PresetHD, PresetNight}
}

// GetPreset returns a preset by name, or nil.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowBandwidthConfig keeps uploads small on cellular links.
func LowBandwidthConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Quality = 70
	return cfg
}

// HDConfig returns 1280x720 for distant signals and signage.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Quality = 85
	return cfg
}

// NightConfig raises brightness and lowers framerate for low light.
func NightConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 10
	cfg.Brightness = 0.4
	return cfg
}
