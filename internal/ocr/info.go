package ocr

// Info describes the OCR subsystem for health endpoints.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Workers   int    `json:"workers,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Describe reports availability of the given pool. A nil pool means OCR
// could not be started; startErr explains why.
func Describe(p *Pool, startErr error) Info {
	info := Info{Backend: "gosseract"}
	if p == nil {
		if startErr == nil {
			startErr = ErrUnavailable
		}
		info.Error = startErr.Error()
		return info
	}
	info.Available = true
	info.Version = Version()
	info.Workers = p.Size()
	return info
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
