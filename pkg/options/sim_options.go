package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SimOptions)(nil)

// SimOptions configures the fallback kinematic simulator tick.
type SimOptions struct {
	// TickInterval is the fixed physics period. The tick also drives the
	// global e-stop enforcement pass, so it runs even when the simulator
	// itself is idle.
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`

	// Field bounds in meters.
	FieldMinX float64 `json:"field-min-x" mapstructure:"field-min-x"`
	FieldMaxX float64 `json:"field-max-x" mapstructure:"field-max-x"`
	FieldMinY float64 `json:"field-min-y" mapstructure:"field-min-y"`
	FieldMaxY float64 `json:"field-max-y" mapstructure:"field-max-y"`
}

// NewSimOptions creates SimOptions with default values.
func NewSimOptions() *SimOptions {
	return &SimOptions{
		TickInterval: 100 * time.Millisecond,
		FieldMinX:    -20,
		FieldMaxX:    20,
		FieldMinY:    -20,
		FieldMaxY:    20,
	}
}

// Validate checks the option values.
func (o *SimOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TickInterval <= 0 {
		errs = append(errs, errors.New("sim tick interval must be positive"))
	}
	if o.FieldMinX >= o.FieldMaxX || o.FieldMinY >= o.FieldMaxY {
		errs = append(errs, errors.New("sim field bounds are inverted"))
	}
	return errs
}

// AddFlags registers simulator flags on the given flag set.
func (o *SimOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.TickInterval, "sim.tick-interval", o.TickInterval, "Fallback physics tick period.")
	fs.Float64Var(&o.FieldMinX, "sim.field-min-x", o.FieldMinX, "Field lower X bound in meters.")
	fs.Float64Var(&o.FieldMaxX, "sim.field-max-x", o.FieldMaxX, "Field upper X bound in meters.")
	fs.Float64Var(&o.FieldMinY, "sim.field-min-y", o.FieldMinY, "Field lower Y bound in meters.")
	fs.Float64Var(&o.FieldMaxY, "sim.field-max-y", o.FieldMaxY, "Field upper Y bound in meters.")
}
