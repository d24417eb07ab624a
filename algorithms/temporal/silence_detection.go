package temporal

// SilenceDetection finds where sound starts in a signal.
type SilenceDetection struct {
	// RelativeThreshold is the fraction of the loudest frame's RMS a frame must
	// exceed to count as sound.
	RelativeThreshold float64 `json:"relative_threshold"`
	FrameSeconds      float64 `json:"frame_seconds"`
	HopSeconds        float64 `json:"hop_seconds"`

	envelope *Envelope
}

// NewSilenceDetection creates a silence detector
func NewSilenceDetection() *SilenceDetection {
	return &SilenceDetection{
		RelativeThreshold: 0.1,
		FrameSeconds:      0.02,
		HopSeconds:        0.01,
		envelope:          NewEnvelope(),
	}
}

// LeadingSilence returns the seconds before the first frame louder than the
// threshold. A silent or too short signal has no leading silence.
func (sd *SilenceDetection) LeadingSilence(signal []float64, sampleRate int) float64 {
	frameSize := int(sd.FrameSeconds * float64(sampleRate))
	hopSize := int(sd.HopSeconds * float64(sampleRate))

	rms := sd.envelope.ComputeRMS(signal, frameSize, hopSize)
	loudest := 0.0
	for _, v := range rms {
		loudest = max(loudest, v)
	}
	if loudest == 0 {
		return 0
	}

	threshold := sd.RelativeThreshold * loudest
	for i, v := range rms {
		if v > threshold {
			return float64(i*hopSize) / float64(sampleRate)
		}
	}
	return 0
}
