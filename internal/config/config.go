package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sessionkv/internal/guarantee"
)

// EnvPrefix is the prefix for environment overrides, e.g. SESSIONKV_REPLICAS.
const EnvPrefix = "SESSIONKV"

const (
	keyReplicas   = "replicas"
	keyGuarantees = "guarantees"
	keyVNodes     = "vnodes"
	keyLogLevel   = "log-level"
)

// Config holds the demo driver configuration.
type Config struct {
	Replicas   []string
	Guarantees guarantee.Set
	VNodes     int
	LogLevel   zerolog.Level
}

// RegisterFlags adds the driver flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(keyReplicas, "A,B", "comma-separated replica IDs")
	fs.String(keyGuarantees, "MR,RYW,WFR,MW", "session guarantees to enforce (MR,RYW,WFR,MW, all or none)")
	fs.Int(keyVNodes, 128, "virtual nodes per replica on the hash ring")
	fs.String(keyLogLevel, "info", "log level (debug, info, warn, error)")
}

// Load reads configuration from fs, then from SESSIONKV_* environment
// variables, which take precedence over flag defaults but not over flags
// set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	replicas, err := ParseReplicas(v.GetString(keyReplicas))
	if err != nil {
		return nil, errors.Wrap(err, "parse replicas")
	}
	if len(replicas) == 0 {
		return nil, errors.New("at least one replica is required")
	}

	set, err := guarantee.ParseSet(v.GetString(keyGuarantees))
	if err != nil {
		return nil, errors.Wrap(err, "parse guarantees")
	}

	level, err := zerolog.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", keyLogLevel)
	}

	vnodes := v.GetInt(keyVNodes)
	if vnodes <= 0 {
		return nil, errors.Errorf("%s must be positive, got %d", keyVNodes, vnodes)
	}

	return &Config{
		Replicas:   replicas,
		Guarantees: set,
		VNodes:     vnodes,
		LogLevel:   level,
	}, nil
}

// ParseReplicas parses a comma-separated list of replica IDs:
// "A,B,C"
func ParseReplicas(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if strings.ContainsAny(id, " \t=") {
			return nil, fmt.Errorf("invalid replica ID: %q", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate replica ID: %s", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}
