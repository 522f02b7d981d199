package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every per-concern options struct so the
// command layer can aggregate validation and flag registration uniformly.
type IOptions interface {
	// Validate returns all configuration problems found, not just the first.
	Validate() []error

	// AddFlags registers the options' flags on the given flag set.
	AddFlags(fs *pflag.FlagSet)
}

// ValidateAddress checks that addr is a host:port the servers can bind.
func ValidateAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}
