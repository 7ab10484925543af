package config

import (
	"regexp"
	"strings"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
	Guess    GuessConfig    `yaml:"guess" mapstructure:"guess"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DatabaseConfig configures the load target.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	URL    string `yaml:"url" mapstructure:"url"`
	Schema string `yaml:"schema" mapstructure:"schema"`
}

// ImportConfig configures how inputs are read and loaded.
type ImportConfig struct {
	Format      string `yaml:"format" mapstructure:"format"`
	Compression string `yaml:"compression" mapstructure:"compression"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	Header      bool   `yaml:"header" mapstructure:"header"`
	Append      bool   `yaml:"append" mapstructure:"append"`
	CStore      bool   `yaml:"cstore" mapstructure:"cstore"`
	CamelCase   bool   `yaml:"camel_case" mapstructure:"camel_case"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// GuessConfig configures content model inference. Field names may be
// qualified with the path of their nested model, e.g. "address.city" or
// "items[].sku".
type GuessConfig struct {
	Skip    []string `yaml:"skip" mapstructure:"skip"`
	Keep    []string `yaml:"keep" mapstructure:"keep"`
	Require []string `yaml:"require" mapstructure:"require"`

	// Force is a list rather than a map since viper lower cases map keys.
	Force []ForceConfig `yaml:"force" mapstructure:"force"`

	DateFormats     DateFormatsConfig     `yaml:"date_formats" mapstructure:"date_formats"`
	TextConstraints TextConstraintsConfig `yaml:"text_constraints" mapstructure:"text_constraints"`
}

// ForceConfig supplies the kind of a field. Date time kinds take a layout
// after a colon ("datetime:01/02/2006") and constrained text the name of a
// text constraint ("constrained-text:SKU").
type ForceConfig struct {
	Field string `yaml:"field" mapstructure:"field"`
	Kind  string `yaml:"kind" mapstructure:"kind"`
}

// DateFormatsConfig lists time package layouts.
type DateFormatsConfig struct {
	Only       []string `yaml:"only" mapstructure:"only"`
	Additional []string `yaml:"additional" mapstructure:"additional"`
}

// TextConstraintsConfig lists named regular expressions.
type TextConstraintsConfig struct {
	Only       []ConstraintConfig `yaml:"only" mapstructure:"only"`
	Additional []ConstraintConfig `yaml:"additional" mapstructure:"additional"`
}

type ConstraintConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
}

// Load reads configuration from file and environment. An empty path
// searches for sql-importer.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sql-importer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SQLIMPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.schema", "")
	v.SetDefault("import.format", "")
	v.SetDefault("import.compression", "")
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.header", true)
	v.SetDefault("import.append", false)
	v.SetDefault("import.cstore", false)
	v.SetDefault("import.camel_case", false)
	v.SetDefault("import.sheet", "")
	v.SetDefault("import.concurrency", 4)

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// DelimiterByte returns the separator byte. "tab" and `\t` name a tab.
func (c ImportConfig) DelimiterByte() (byte, error) {
	switch c.Delimiter {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}

	if len(c.Delimiter) != 1 {
		return 0, eris.Errorf("config: delimiter must be a single byte, got %q", c.Delimiter)
	}
	return c.Delimiter[0], nil
}

func compile(list []ConstraintConfig) ([]*profile.TextConstraint, error) {
	if list == nil {
		return nil, nil
	}

	out := make([]*profile.TextConstraint, len(list))
	for i, c := range list {
		if c.Name == "" {
			return nil, eris.Errorf("config: text constraint %d has no name", i)
		}

		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "config: compile text constraint %q", c.Name)
		}

		out[i] = &profile.TextConstraint{Name: c.Name, Pattern: re}
	}
	return out, nil
}

func layouts(list []string) []profile.DateFormat {
	if list == nil {
		return nil
	}

	out := make([]profile.DateFormat, len(list))
	for i, l := range list {
		out[i] = profile.Layout(l)
	}
	return out
}

// Options converts the guess configuration into guesser options.
func (c GuessConfig) Options() (*profile.Options, error) {
	opts := &profile.Options{
		DateFormats: profile.DateFormats{
			Only:       layouts(c.DateFormats.Only),
			Additional: layouts(c.DateFormats.Additional),
		},
	}

	var err error
	if opts.TextConstraints.Only, err = compile(c.TextConstraints.Only); err != nil {
		return nil, err
	}
	if opts.TextConstraints.Additional, err = compile(c.TextConstraints.Additional); err != nil {
		return nil, err
	}

	if len(c.Skip) > 0 {
		opts.SkipFields = profile.Fields(c.Skip...)
	}
	if len(c.Keep) > 0 {
		opts.KeepOnlyFields = profile.Fields(c.Keep...)
	}
	if len(c.Require) > 0 {
		opts.RequireField = profile.Fields(c.Require...)
	}

	if len(c.Force) > 0 {
		opts.ForceDefinition = make(map[string]*profile.Definition, len(c.Force))

		for _, f := range c.Force {
			d, err := c.definition(f, opts.TextConstraints)
			if err != nil {
				return nil, err
			}

			if req, ok := opts.RequireField[f.Field]; ok {
				d.Required = req
			}

			opts.ForceDefinition[f.Field] = d
		}
	}

	return opts, nil
}

func (c GuessConfig) definition(f ForceConfig, constraints profile.TextConstraints) (*profile.Definition, error) {
	name, arg, _ := strings.Cut(f.Kind, ":")

	kind, ok := profile.ParseKind(name)
	if !ok {
		return nil, eris.Errorf("config: unknown kind %q for field %q", f.Kind, f.Field)
	}

	switch kind {
	case profile.UnknownKind:
		return profile.NewUnknown(), nil
	case profile.TextKind:
		return profile.NewText(nil), nil
	case profile.BoolKind:
		return profile.NewBoolean(nil), nil
	case profile.IntKind:
		return profile.NewInteger(nil), nil
	case profile.FloatKind:
		return profile.NewFloat(nil), nil
	case profile.ObjectKind:
		return profile.NewObject(nil), nil
	case profile.ObjectArrayKind:
		return profile.NewObjectArray(nil), nil

	case profile.DateTimeKind:
		if arg == "" {
			return profile.NewDateTime(nil, nil), nil
		}
		return profile.NewDateTime(nil, profile.Layout(arg)), nil

	case profile.ConstrainedTextKind:
		all := append(append([]*profile.TextConstraint{}, constraints.Additional...), constraints.Only...)
		all = append(all, profile.DefaultTextConstraints...)

		for _, tc := range all {
			if tc.Name == arg {
				return profile.NewConstrainedText(nil, tc), nil
			}
		}
		return nil, eris.Errorf("config: unknown text constraint %q for field %q", arg, f.Field)
	}

	return nil, eris.Errorf("config: unsupported kind %q for field %q", f.Kind, f.Field)
}
