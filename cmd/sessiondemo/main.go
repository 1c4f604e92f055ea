package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"sessionkv/internal/client"
	"sessionkv/internal/cluster"
	"sessionkv/internal/config"
	"sessionkv/internal/guarantee"
	"sessionkv/internal/replica"
)

func main() {
	fs := pflag.NewFlagSet("sessiondemo", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessiondemo: %v\n", err)
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()

	cl := cluster.New(cfg.VNodes)
	for _, id := range cfg.Replicas {
		if err := cl.Add(replica.New(id, replica.WithLogger(logger))); err != nil {
			logger.Fatal().Err(err).Msg("failed to add replica")
		}
	}

	logger.Info().
		Strs("replicas", cfg.Replicas).
		Stringer("guarantees", cfg.Guarantees).
		Msg("starting session")

	c := client.New(cl, cfg.Guarantees, client.WithLogger(logger))
	if err := run(c, cl, logger); err != nil {
		var v *guarantee.Violation
		if errors.As(err, &v) {
			logger.Warn().
				Str("guarantee", v.Kind.String()).
				Str("replica", v.ReplicaID).
				Stringer("applied", v.Applied).
				Stringer("required", v.Required).
				Msg("session guarantee violated")
			os.Exit(1)
		}
		logger.Fatal().Err(err).Msg("session failed")
	}
}

// run writes to the first replica, reads it back, then writes to the second
// replica, which has not seen the first write.
func run(c *client.Client, cl *cluster.Cluster, logger zerolog.Logger) error {
	replicas := cl.Replicas()
	first := replicas[0]

	logger.Info().Str("replica", first.ID()).Msg("writing")
	if err := c.WriteTo(first); err != nil {
		return err
	}
	logger.Info().Stringer("replica", first).Msg("write applied")

	logger.Info().Str("replica", first.ID()).Msg("reading")
	if _, err := c.ReadFrom(first); err != nil {
		return err
	}
	logger.Info().Stringer("read_vector", c.Session().ReadVector()).Msg("read recorded")

	if len(replicas) < 2 {
		return nil
	}
	second := replicas[1]

	logger.Info().Str("replica", second.ID()).Msg("writing")
	if err := c.WriteTo(second); err != nil {
		return err
	}
	logger.Info().Stringer("replica", second).Msg("write applied")
	return nil
}
