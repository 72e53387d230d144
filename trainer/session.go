package trainer

// Session is the cross-epoch state of a training run.
type Session struct {
	Epoch   int     // number of completed epochs
	BestIoU float64 // best validation IoU so far
	Trigger int     // epochs since BestIoU last improved
}

// Decide returns the session after an epoch that scored valIoU on the
// validation set, and whether that score strictly improves BestIoU.
// Trigger is bookkeeping only; nothing stops early on it.
func (s Session) Decide(valIoU float64) (Session, bool) {
	next := s
	next.Epoch++
	if valIoU > s.BestIoU {
		next.BestIoU = valIoU
		next.Trigger = 0
		return next, true
	}
	next.Trigger++
	return next, false
}
