package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// ProcessorsConfig switches individual annotation families on and off.
	// Execution order is fixed (footnotes, marginalia, extensions, markers)
	// regardless of which families are enabled.
	ProcessorsConfig struct {
		Footnotes  bool `yaml:"footnotes"`
		Marginalia bool `yaml:"marginalia"`
		Extensions bool `yaml:"extensions"`
		Markers    bool `yaml:"markers"`
	}

	// MarginaliaConfig holds defaults for omitted marginalia parameters.
	// Authored values outside the documented ranges are clamped, never rejected.
	MarginaliaConfig struct {
		DefaultVoice     int     `yaml:"default_voice" validate:"min=1,max=6"`
		DefaultFontScale float64 `yaml:"default_font_scale" validate:"gte=0.4,lte=2.5"`
		DefaultWidth     int     `yaml:"default_width" validate:"min=15,max=45"`
		DefaultPosition  string  `yaml:"default_position" validate:"oneof=left right l r"`
	}

	// ActivationConfig tunes the scroll-driven visibility state machine.
	// NOTE: historical iterations of the reading zone used anything between
	// 10% and 50%, so this is deliberately configuration and not a constant.
	ActivationConfig struct {
		ReadingZone         float64 `yaml:"reading_zone" validate:"gte=0,lte=1"`
		ActivationDelayMs   int     `yaml:"activation_delay_ms" validate:"min=0"`
		DeactivationDelayMs int     `yaml:"deactivation_delay_ms" validate:"min=0"`
		HysteresisPx        int     `yaml:"hysteresis_px" validate:"min=0"`
		TopExitMarginPx     int     `yaml:"top_exit_margin_px" validate:"min=0"`
	}

	// TypingConfig bounds the character reveal animation.
	TypingConfig struct {
		FrameBudgetMs int `yaml:"frame_budget_ms" validate:"min=1"`
	}

	DocumentConfig struct {
		OutputNameTemplate string           `yaml:"output_name_template"`
		Language           string           `yaml:"language" validate:"required"`
		Processors         ProcessorsConfig `yaml:"processors"`
		Marginalia         MarginaliaConfig `yaml:"marginalia"`
		Activation         ActivationConfig `yaml:"activation"`
		Typing             TypingConfig     `yaml:"typing"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
