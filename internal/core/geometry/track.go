package geometry

// Track describes the placed lane: its size, the scroll speed of obstacles
// and the spacing of the three lanes.
type Track struct {
	Width      float64 `yaml:"width" toml:"width"`
	Length     float64 `yaml:"length" toml:"length"`
	Speed      float64 `yaml:"speed" toml:"speed"`
	LaneOffset float64 `yaml:"lane_offset" toml:"lane_offset"`
}

// DefaultTrack is a 1.8 m by 3 m lane scrolling at 1.5 m/s.
func DefaultTrack() Track {
	return Track{
		Width:      1.8,
		Length:     3.0,
		Speed:      1.5,
		LaneOffset: 0.6,
	}
}

// Lanes returns the left, centre and right lane x offsets.
func (t Track) Lanes() [3]float64 {
	return [3]float64{-t.LaneOffset, 0, t.LaneOffset}
}

// SpawnZ is the local z just beyond the far end of the track.
func (t Track) SpawnZ(margin float64) float64 {
	return -(t.Length + margin)
}
