package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionkv/internal/guarantee"
)

func TestParseReplicas(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
		{
			name:  "single replica",
			input: "A",
			want:  []string{"A"},
		},
		{
			name:  "multiple replicas",
			input: "A,B,C",
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "with spaces and empty entries",
			input: " A , B ,, C ",
			want:  []string{"A", "B", "C"},
		},
		{
			name:    "duplicate",
			input:   "A,B,A",
			wantErr: true,
		},
		{
			name:    "peer syntax rejected",
			input:   "n1=127.0.0.1:50051",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReplicas(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, cfg.Replicas)
	assert.Equal(t, guarantee.All, cfg.Guarantees)
	assert.Equal(t, 128, cfg.VNodes)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(newFlags(t,
		"--replicas", "X,Y,Z",
		"--guarantees", "MR,MW",
		"--vnodes", "16",
		"--log-level", "debug",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y", "Z"}, cfg.Replicas)
	assert.Equal(t, guarantee.NewSet(guarantee.MonotonicReads, guarantee.MonotonicWrites), cfg.Guarantees)
	assert.Equal(t, 16, cfg.VNodes)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SESSIONKV_REPLICAS", "P,Q")
	t.Setenv("SESSIONKV_LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q"}, cfg.Replicas)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)

	// Explicit flags beat the environment
	cfg, err = Load(newFlags(t, "--replicas", "R"))
	require.NoError(t, err)
	assert.Equal(t, []string{"R"}, cfg.Replicas)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no replicas", args: []string{"--replicas", " "}},
		{name: "duplicate replicas", args: []string{"--replicas", "A,A"}},
		{name: "unknown guarantee", args: []string{"--guarantees", "MR,XYZ"}},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
		{name: "zero vnodes", args: []string{"--vnodes", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}
