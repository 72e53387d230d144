package trainer

import (
	"fmt"
	"log"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/unetpp/config"
	"github.com/sugarme/unetpp/dataset"
	"github.com/sugarme/unetpp/dutil"
	"github.com/sugarme/unetpp/unetpp"
)

// Adam moment decay rates.
const (
	beta1 = 0.9
	beta2 = 0.999
)

// Run trains a NestedUNet from scratch as described by cfg.
func Run(cfg *config.Config, device gotch.Device) (Session, error) {
	if err := cfg.ValidateTrain(); err != nil {
		return Session{}, fmt.Errorf("config: %w", err)
	}

	ids, err := dataset.DiscoverIDs(cfg.ImagePath, cfg.Extn)
	if err != nil {
		return Session{}, err
	}
	trainIDs, valIDs, err := dataset.Split(ids, cfg.ValSplit, cfg.Seed)
	if err != nil {
		return Session{}, fmt.Errorf("split %q: %w", cfg.ImagePath, err)
	}
	log.Printf("found %d images: %d train, %d validation\n", len(ids), len(trainIDs), len(valIDs))

	trainDS := dataset.NewSegDataset(trainIDs, cfg.ImagePath, cfg.MaskPath, cfg.Extn, dataset.TrainTransform(cfg.InputSize), cfg.Seed)
	valDS := dataset.NewSegDataset(valIDs, cfg.ImagePath, cfg.MaskPath, cfg.Extn, dataset.ValTransform(cfg.InputSize), cfg.Seed)

	// train: shuffle, drop last partial batch; validation: fixed order, keep it.
	trainSampler, err := dutil.NewBatchSampler(trainDS.Len(), cfg.BatchSize, true, true, cfg.Seed)
	if err != nil {
		return Session{}, fmt.Errorf("train sampler: %w", err)
	}
	valSampler, err := dutil.NewBatchSampler(valDS.Len(), cfg.BatchSize, false, false)
	if err != nil {
		return Session{}, fmt.Errorf("validation sampler: %w", err)
	}
	trainDL, err := dutil.NewDataLoader(trainDS, trainSampler)
	if err != nil {
		return Session{}, err
	}
	valDL, err := dutil.NewDataLoader(valDS, valSampler)
	if err != nil {
		return Session{}, err
	}

	vs := nn.NewVarStore(device)
	net := unetpp.New(vs.Root(), cfg.ModelOptions())

	opt, err := nn.NewAdamConfig(beta1, beta2, cfg.WeightDecay).Build(vs, cfg.LR)
	if err != nil {
		return Session{}, err
	}

	loop := &Loop{
		Epochs:    cfg.Epochs,
		ModelPath: cfg.ModelPath,
		Stepper: &Trainer{
			Net:     net,
			Opt:     opt,
			Device:  device,
			TrainDL: trainDL,
			ValDL:   valDL,
		},
		Saver:   vs,
		History: NewHistory(cfg.LogPath, cfg.PlotPath),
	}

	return loop.Run()
}
