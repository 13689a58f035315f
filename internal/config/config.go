// Package config holds the search and report options.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options selects the derivation ceiling and how the report is printed.
type Options struct {
	// Limit is the largest value the closure keeps.
	Limit uint16 `yaml:"limit"`
	// MaxNum is the last value reported; the report covers 0..MaxNum.
	MaxNum uint16 `yaml:"max_num"`

	PrintOne    bool `yaml:"print_one"`    // stop at the cheapest derivation of each value
	SimplePrint bool `yaml:"simple_print"` // "<value>: <expr>" instead of the detailed line
	PrintBig    bool `yaml:"print_big"`    // only derivations with an operand above MaxNum
	SkipTop     bool `yaml:"skip_top"`     // drop repeated top descriptors within a value
	MarkMax     bool `yaml:"mark_max"`     // flag each new longest expression
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Limit:       65535,
		MaxNum:      500,
		PrintOne:    true,
		SimplePrint: true,
	}
}

var ErrMaxNumAboveLimit = errors.New("max_num is above limit")

// Validate reports option combinations the report cannot honor.
func (o Options) Validate() error {
	if o.MaxNum > o.Limit {
		return fmt.Errorf("%w: %d > %d", ErrMaxNumAboveLimit, o.MaxNum, o.Limit)
	}
	return nil
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return opts, nil
}
