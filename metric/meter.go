package metric

// AverageMeter keeps a running, count-weighted mean of a scalar.
type AverageMeter struct {
	Val   float64
	Sum   float64
	Count int
	Avg   float64
}

// NewAverageMeter creates an empty AverageMeter.
func NewAverageMeter() *AverageMeter {
	return &AverageMeter{}
}

// Reset clears the meter.
func (m *AverageMeter) Reset() {
	*m = AverageMeter{}
}

// Update records val observed over n samples.
func (m *AverageMeter) Update(val float64, n int) {
	if n <= 0 {
		return
	}
	m.Val = val
	m.Sum += val * float64(n)
	m.Count += n
	m.Avg = m.Sum / float64(m.Count)
}
