package animation

// Metadata describes an animation without its pixels. It is what gets
// attached to job results.
type Metadata struct {
	FrameCount int       `json:"frame_count"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	LoopCount  uint      `json:"loop_count"`
	Durations  []float64 `json:"durations"`
	Total      float64   `json:"total_duration"`
}

func (a *Image) Metadata() Metadata {
	durations := make([]float64, len(a.frames))
	for i, f := range a.frames {
		durations[i] = f.Seconds()
	}

	return Metadata{
		FrameCount: len(a.frames),
		Width:      a.size.X,
		Height:     a.size.Y,
		LoopCount:  a.loopCount,
		Durations:  durations,
		Total:      a.TotalDuration().Seconds(),
	}
}

func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func UnmarshalMetadata(data []byte) (Metadata, error) {
	m := Metadata{}
	err := json.Unmarshal(data, &m)
	return m, err
}
