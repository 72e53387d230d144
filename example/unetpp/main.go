package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/unetpp/config"
	"github.com/sugarme/unetpp/predict"
	"github.com/sugarme/unetpp/trainer"
	"github.com/sugarme/unetpp/unetpp"
)

// flag variables
var (
	ConfigPath string
	TestImg    string
	task       string
	overrides  config.Overrides
	threshold  float64
)

func init() {
	flag.StringVar(&ConfigPath, "config", "config.yaml", "specify path to YAML config file")
	flag.StringVar(&task, "task", "train", "specify task to run: train | predict | model")
	flag.StringVar(&TestImg, "test_img", "../input/PNG/Original/50.png", "specify path to test image")
	flag.IntVar(&overrides.Epochs, "epochs", 0, "override number of epochs")
	flag.IntVar(&overrides.BatchSize, "batch", 0, "override batch size")
	flag.Float64Var(&overrides.LR, "lr", 0, "override learning rate")
	flag.StringVar(&overrides.ImagePath, "image", "", "override training image directory")
	flag.StringVar(&overrides.MaskPath, "mask", "", "override training mask directory")
	flag.StringVar(&overrides.ModelPath, "model", "", "override model checkpoint path")
	flag.StringVar(&overrides.OutputPath, "output", "", "override output mask path")
	flag.Float64Var(&threshold, "threshold", 0, "override inference logit threshold")
	flag.BoolVar(&overrides.Cuda, "cuda", false, "specify whether using CUDA or not.")
}

func main() {
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			overrides.Threshold = &threshold
		}
	})

	cfg, err := config.Load(absPath(ConfigPath))
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyOverrides(overrides)

	device := gotch.CPU
	if cfg.Cuda {
		device = gotch.NewCuda().CudaIfAvailable()
	}

	switch task {
	case "train":
		runTrain(cfg, device)
	case "predict":
		runPredict(cfg, device)
	case "model":
		runCheckModel(cfg)
	default:
		err := fmt.Errorf("Unknown 'task' name %q. Please specify valid 'task' flag to run.\n", task)
		log.Fatal(err)
	}
}

func runTrain(cfg *config.Config, device gotch.Device) {
	if _, err := trainer.Run(cfg, device); err != nil {
		log.Fatal(err)
	}
}

func runPredict(cfg *config.Config, device gotch.Device) {
	p, err := predict.Load(cfg, device)
	if err != nil {
		log.Fatal(err)
	}
	if err := p.PredictFile(absPath(TestImg), cfg.OutputPath); err != nil {
		log.Fatal(err)
	}
}

// runCheckModel prints parameter shapes sorted by name.
func runCheckModel(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	vs := nn.NewVarStore(gotch.CPU)
	unetpp.New(vs.Root(), cfg.ModelOptions())

	vars := vs.Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("%v \t\t %v\n", n, vars[n].MustSize())
	}
	fmt.Printf("Total variables: %v\n", len(names))
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}
