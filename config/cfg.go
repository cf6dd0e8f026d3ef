package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"epubres/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	TruncateConfig struct {
		// Negative value disables truncation by percentage
		Percent   float64 `yaml:"percent" validate:"gte=-1"`
		MaxLength int     `yaml:"max_length" validate:"gte=0"`
		// Negative value disables truncation by length
		Length int    `yaml:"length" validate:"gte=-1"`
		Ending string `yaml:"ending"`
	}

	InlineStylesConfig struct {
		Mode common.InlineStyleMode `yaml:"mode" validate:"gte=0"`
		// property name -> regular expression for the value
		Allowed map[string]string `yaml:"allowed,omitempty" validate:"dive,keys,required,endkeys,required"`
	}

	StylesConfig struct {
		External        bool               `yaml:"external"`
		Internal        bool               `yaml:"internal"`
		Inline          InlineStylesConfig `yaml:"inline"`
		NamespacePrefix string             `yaml:"namespace_prefix" validate:"required"`
		SizeLimit       int                `yaml:"size_limit" validate:"gte=0"`
	}

	ChaptersConfig struct {
		ExcludeIDs    []string `yaml:"exclude_ids,omitempty" validate:"dive,required"`
		SkipNonLinear bool     `yaml:"skip_non_linear"`
	}

	ProcessingConfig struct {
		Truncate   TruncateConfig `yaml:"truncate"`
		Styles     StylesConfig   `yaml:"styles"`
		Chapters   ChaptersConfig `yaml:"chapters"`
		PublicPath string         `yaml:"public_path"`
		IncludeNav bool           `yaml:"include_nav"`
	}

	OutputConfig struct {
		Archive               bool   `yaml:"archive"`
		FixZip                bool   `yaml:"fix_zip"`
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Processing ProcessingConfig `yaml:"processing"`
		Output     OutputConfig     `yaml:"output"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// checkConfig performs checks which involve more than one field.
func checkConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	tr := cfg.Processing.Truncate
	if tr.Percent >= 0 && tr.Length >= 0 {
		sl.ReportError(tr.Length, "length", "Length", "excluded_with_percent", "")
	}
	in := cfg.Processing.Styles.Inline
	if in.Mode == common.InlineStyleModeList && len(in.Allowed) == 0 {
		sl.ReportError(in.Allowed, "allowed", "Allowed", "required_for_list", "")
	}
	if !in.Mode.IsValid() {
		sl.ReportError(in.Mode, "mode", "Mode", "inline_style_mode", in.Mode.String())
	}
}

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
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
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
