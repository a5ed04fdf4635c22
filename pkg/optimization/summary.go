// Package optimization provides shared data structures for calibration results.
package optimization

// Summary captures the result of calibrating one parameter of a scenario.
type Summary struct {
	Parameter   string  `json:"parameter"`
	Outcome     string  `json:"outcome"`
	Target      float64 `json:"target"`
	Original    float64 `json:"original"`
	Value       float64 `json:"value"`
	Achieved    float64 `json:"achieved"`
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
}

// Residual returns how far the achieved outcome is from the target.
func (s Summary) Residual() float64 {
	return s.Achieved - s.Target
}
