package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options contains configuration for the logger.
type Options struct {
	// Name is an optional logger name, added as a field to every entry.
	Name string `json:"name,omitempty" mapstructure:"name"`

	// Level is the minimum level to emit: debug, info, warn or error.
	Level string `json:"level,omitempty" mapstructure:"level"`

	// Format is the output encoding, either json or console.
	Format string `json:"format,omitempty" mapstructure:"format"`

	// EnableColor colorizes level names in console format.
	EnableColor bool `json:"enable-color,omitempty" mapstructure:"enable-color"`

	// DisableCaller omits the caller annotation from entries.
	DisableCaller bool `json:"disable-caller,omitempty" mapstructure:"disable-caller"`
}

// NewOptions returns Options with defaults suited for interactive use.
func NewOptions() *Options {
	return &Options{
		Level:  "info",
		Format: FormatConsole,
	}
}

// Validate checks the option values.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	switch o.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", o.Level))
	}

	switch o.Format {
	case FormatJSON, FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", o.Format))
	}

	return errs
}

// AddFlags registers logging flags on the given flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn, error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log output format: json or console.")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colorize console log output.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit caller annotation from log entries.")
}
