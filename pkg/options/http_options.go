package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions contains configuration for the station's local HTTP API.
type HttpOptions struct {
	// Addr is the listen address. Defaults to loopback only: the API is
	// unauthenticated and meant for the local dashboard front end.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout bounds request reads and writes.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewHttpOptions creates a HttpOptions object with default parameters.
func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Addr:    "127.0.0.1:9090",
		Timeout: 30 * time.Second,
	}
}

// Validate checks the option values.
func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags registers HTTP flags on the given flag set.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "HTTP API bind address and port.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Timeout for HTTP request handling.")
}
