package motion

// Config holds the gesture thresholds and filter constants of the estimator.
// Lengths are metres, velocities m/s, times seconds.
type Config struct {
	HeadRadius         float64 `yaml:"head_radius" toml:"head_radius"`
	DuckDelta          float64 `yaml:"duck_delta" toml:"duck_delta"`
	JumpVelocity       float64 `yaml:"jump_velocity" toml:"jump_velocity"`
	JumpMinRise        float64 `yaml:"jump_min_rise" toml:"jump_min_rise"`
	JumpDebounce       float64 `yaml:"jump_debounce" toml:"jump_debounce"`
	CalibrationWindow  float64 `yaml:"calibration_window" toml:"calibration_window"`
	CalibrationSamples int     `yaml:"calibration_samples" toml:"calibration_samples"`
	PositionSmoothing  float64 `yaml:"position_smoothing" toml:"position_smoothing"`
	VelocitySmoothing  float64 `yaml:"velocity_smoothing" toml:"velocity_smoothing"`
	MinSampleInterval  float64 `yaml:"min_sample_interval" toml:"min_sample_interval"`
}

// DefaultConfig returns thresholds tuned for a standing adult.
func DefaultConfig() Config {
	return Config{
		HeadRadius:         0.18,
		DuckDelta:          0.25,
		JumpVelocity:       1.2,
		JumpMinRise:        0.10,
		JumpDebounce:       0.35,
		CalibrationWindow:  2.0,
		CalibrationSamples: 20,
		PositionSmoothing:  0.25,
		VelocitySmoothing:  0.2,
		MinSampleInterval:  0.001,
	}
}
