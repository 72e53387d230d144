package trainer

import (
	"errors"
	"fmt"
	"log"
)

// Metrics summarizes one pass over a data split.
type Metrics struct {
	Loss float64
	IoU  float64
}

// Stepper runs whole passes over the training and validation data.
type Stepper interface {
	TrainEpoch() (Metrics, error)
	ValidateEpoch() (Metrics, error)
}

// Checkpointer persists model parameters. *nn.VarStore implements it.
type Checkpointer interface {
	Save(path string) error
}

// Loop drives epochs: train, validate, log, keep the best checkpoint.
type Loop struct {
	Epochs    int
	ModelPath string
	Stepper   Stepper
	Saver     Checkpointer
	History   *History
	Session   Session
}

// Run executes Epochs epochs. Any error aborts the run; the returned
// Session reflects the last fully completed epoch.
func (l *Loop) Run() (Session, error) {
	if l.Epochs <= 0 {
		return l.Session, errors.New("trainer: epochs must be > 0")
	}
	if l.Stepper == nil || l.Saver == nil || l.History == nil {
		return l.Session, errors.New("trainer: loop is not fully configured")
	}

	for epoch := 0; epoch < l.Epochs; epoch++ {
		fmt.Printf("Epoch [%d/%d]\n", epoch, l.Epochs)

		trainLog, err := l.Stepper.TrainEpoch()
		if err != nil {
			return l.Session, fmt.Errorf("epoch %d: train: %w", epoch, err)
		}
		valLog, err := l.Stepper.ValidateEpoch()
		if err != nil {
			return l.Session, fmt.Errorf("epoch %d: validate: %w", epoch, err)
		}

		fmt.Printf("loss %.4f - iou %.4f - val_loss %.4f - val_iou %.4f\n",
			trainLog.Loss, trainLog.IoU, valLog.Loss, valLog.IoU)

		err = l.History.Append(Record{
			Epoch:   epoch,
			Loss:    trainLog.Loss,
			IoU:     trainLog.IoU,
			ValLoss: valLog.Loss,
			ValIoU:  valLog.IoU,
		})
		if err != nil {
			return l.Session, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		next, improved := l.Session.Decide(valLog.IoU)
		if improved {
			if err := l.Saver.Save(l.ModelPath); err != nil {
				return l.Session, fmt.Errorf("epoch %d: save checkpoint: %w", epoch, err)
			}
			fmt.Println("=> saved best model")
		}
		l.Session = next
	}

	log.Printf("training done: best val_iou %.4f after %d epochs\n", l.Session.BestIoU, l.Session.Epoch)
	return l.Session, nil
}
