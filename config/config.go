package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sugarme/unetpp/unetpp"
)

// Config captures the runtime knobs for training and inference.
type Config struct {
	Extn            string  `yaml:"extn"`
	Epochs          int     `yaml:"epochs"`
	BatchSize       int     `yaml:"batch_size"`
	LR              float64 `yaml:"lr"`
	WeightDecay     float64 `yaml:"weight_decay"`
	InputSize       int     `yaml:"input_size"`
	ValSplit        float64 `yaml:"val_split"`
	Seed            int64   `yaml:"seed"`
	DeepSupervision bool    `yaml:"deep_supervision"`
	Filters         []int64 `yaml:"filters"`

	ImagePath  string `yaml:"image_path"`
	MaskPath   string `yaml:"mask_path"`
	LogPath    string `yaml:"log_path"`
	PlotPath   string `yaml:"plot_path"`
	ModelPath  string `yaml:"model_path"`
	OutputPath string `yaml:"output_path"`

	ImWidth   int     `yaml:"im_width"`
	ImHeight  int     `yaml:"im_height"`
	Threshold float64 `yaml:"threshold"`
	Cuda      bool    `yaml:"cuda"`
}

// Default returns a Config holding the default hyperparameters.
// Paths are left empty.
func Default() *Config {
	return &Config{
		Extn:            ".png",
		Epochs:          100,
		BatchSize:       16,
		LR:              1e-3,
		WeightDecay:     1e-4,
		InputSize:       256,
		ValSplit:        0.2,
		Seed:            41,
		DeepSupervision: true,
		Filters:         append([]int64(nil), unetpp.DefaultFilters...),
		ImWidth:         256,
		ImHeight:        256,
		Threshold:       -2.5,
	}
}

// Load reads a Config from YAML. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Epochs     int
	BatchSize  int
	LR         float64
	ImagePath  string
	MaskPath   string
	ModelPath  string
	OutputPath string
	Threshold  *float64
	Cuda       bool
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LR > 0 {
		c.LR = o.LR
	}
	if o.ImagePath != "" {
		c.ImagePath = o.ImagePath
	}
	if o.MaskPath != "" {
		c.MaskPath = o.MaskPath
	}
	if o.ModelPath != "" {
		c.ModelPath = o.ModelPath
	}
	if o.OutputPath != "" {
		c.OutputPath = o.OutputPath
	}
	if o.Threshold != nil {
		c.Threshold = *o.Threshold
	}
	if o.Cuda {
		c.Cuda = true
	}
}

// Validate verifies the settings shared by training and inference.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ModelPath == "" {
		return errors.New("model_path must be set")
	}
	if len(c.Filters) != unetpp.Depth {
		return fmt.Errorf("filters must have %d entries (got %d)", unetpp.Depth, len(c.Filters))
	}
	for _, f := range c.Filters {
		if f <= 0 {
			return fmt.Errorf("filters must be > 0 (got %v)", c.Filters)
		}
	}
	if err := unetpp.CheckInputSize(int64(c.InputSize), int64(c.InputSize)); err != nil {
		return fmt.Errorf("input_size: %w", err)
	}
	return nil
}

// ValidateTrain verifies the config can drive a training run.
func (c *Config) ValidateTrain() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Extn == "" {
		return errors.New("extn must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be > 0 (got %v)", c.LR)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("weight_decay must be >= 0 (got %v)", c.WeightDecay)
	}
	if c.ValSplit <= 0 || c.ValSplit >= 1 {
		return fmt.Errorf("val_split must be in (0, 1) (got %v)", c.ValSplit)
	}
	if c.LogPath == "" {
		return errors.New("log_path must be set")
	}
	for name, dir := range map[string]string{"image_path": c.ImagePath, "mask_path": c.MaskPath} {
		if dir == "" {
			return fmt.Errorf("%s must be set", name)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: %q is not a directory", name, dir)
		}
	}
	return nil
}

// ValidatePredict verifies the config can drive inference.
func (c *Config) ValidatePredict() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OutputPath == "" {
		return errors.New("output_path must be set")
	}
	if c.ImWidth <= 0 || c.ImHeight <= 0 {
		return fmt.Errorf("im_width and im_height must be > 0 (got %dx%d)", c.ImWidth, c.ImHeight)
	}
	return nil
}

// ModelOptions returns the network options described by c.
func (c *Config) ModelOptions() unetpp.Options {
	opts := unetpp.DefaultOptions()
	opts.Filters = c.Filters
	opts.DeepSupervision = c.DeepSupervision
	return opts
}
