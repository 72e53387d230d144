package trainer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sugarme/unetpp/trainer"
)

func TestSessionDecide(t *testing.T) {
	var s trainer.Session

	s, improved := s.Decide(0.5)
	assert.True(t, improved)
	assert.Equal(t, trainer.Session{Epoch: 1, BestIoU: 0.5, Trigger: 0}, s)

	s, improved = s.Decide(0.5) // equal is not an improvement
	assert.False(t, improved)
	assert.Equal(t, trainer.Session{Epoch: 2, BestIoU: 0.5, Trigger: 1}, s)

	s, improved = s.Decide(0.4)
	assert.False(t, improved)
	assert.Equal(t, 2, s.Trigger)

	s, improved = s.Decide(0.7)
	assert.True(t, improved)
	assert.Equal(t, trainer.Session{Epoch: 4, BestIoU: 0.7, Trigger: 0}, s)
}

func TestSessionDecideZero(t *testing.T) {
	s, improved := trainer.Session{}.Decide(0)
	assert.False(t, improved)
	assert.Equal(t, 1, s.Trigger)
}
