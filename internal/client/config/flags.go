package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Arguments it
// does not know are filtered out first with flagx.FilterArgs, so -c and
// flags of other components do not cause parse errors.
func parseFlags(cfg *Config, osArgs []string) error {
	args := flagx.FilterArgs(osArgs, []string{"-a", "-timeout", "-turn-timeout", "-state", "-i"})

	fs := flag.NewFlagSet("gemspark-cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout, "chat turn timeout")
	fs.StringVar(&cfg.StateDSN, "state", cfg.StateDSN, "local state database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
