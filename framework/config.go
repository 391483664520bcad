package framework

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyRPCURL         = "rpc_url"
	KeyPrivateKey     = "private_key"
	KeyChainID        = "chain_id"
	KeyArtifactsDir   = "artifacts_dir"
	KeyConfirmTimeout = "confirm_timeout"
	KeyLogLevel       = "log_level"

	EnvRPCURL         = "RPC_URL"
	EnvPrivateKey     = "PRIVATE_KEY"
	EnvChainID        = "CHAIN_ID"
	EnvArtifactsDir   = "ARTIFACTS_DIR"
	EnvConfirmTimeout = "CONFIRM_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"

	DefaultRPCURL         = "http://127.0.0.1:8545"
	DefaultArtifactsDir   = "artifacts"
	DefaultConfirmTimeout = 5 * time.Minute
	DefaultLogLevel       = "info"
)

var (
	ErrMissingRPCURL     = errors.New("missing rpc url")
	ErrMissingPrivateKey = errors.New("missing deployer private key")
	ErrInvalidChainID    = errors.New("invalid chain id")
	ErrInvalidTimeout    = errors.New("invalid confirmation timeout")
)

type Config struct {
	RPCURL         string
	PrivateKey     string
	ChainID        int64
	ArtifactsDir   string
	ConfirmTimeout time.Duration
	LogLevel       string
}

// RegisterFlags adds the network flags to fs and binds each of them, together
// with its environment variable, to v.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.String("rpc-url", DefaultRPCURL, "JSON-RPC endpoint of the target network")
	fs.String("private-key", "", "hex encoded private key of the deployer account")
	fs.Int64("chain-id", 0, "chain id used for signing, 0 asks the node")
	fs.String("artifacts", DefaultArtifactsDir, "directory holding compiled contract artifacts")
	fs.Duration("confirm-timeout", DefaultConfirmTimeout, "how long to wait for the deployment to be mined, 0 waits forever")
	fs.String("log-level", DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	bindings := []struct {
		key, flag, env string
	}{
		{KeyRPCURL, "rpc-url", EnvRPCURL},
		{KeyPrivateKey, "private-key", EnvPrivateKey},
		{KeyChainID, "chain-id", EnvChainID},
		{KeyArtifactsDir, "artifacts", EnvArtifactsDir},
		{KeyConfirmTimeout, "confirm-timeout", EnvConfirmTimeout},
		{KeyLogLevel, "log-level", EnvLogLevel},
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			return err
		}
		if err := v.BindEnv(b.key, b.env); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads the network settings from v. Values coming from the
// environment are parsed strictly: a timeout needs a unit ("90s") and the
// chain id must be a non-negative integer.
func LoadConfig(v *viper.Viper) (*Config, error) {
	v.SetDefault(KeyRPCURL, DefaultRPCURL)
	v.SetDefault(KeyArtifactsDir, DefaultArtifactsDir)
	v.SetDefault(KeyConfirmTimeout, DefaultConfirmTimeout.String())
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	chainID, err := parseChainID(v.GetString(KeyChainID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvChainID, err)
	}
	timeout, err := parseTimeout(v.GetString(KeyConfirmTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvConfirmTimeout, err)
	}

	return &Config{
		RPCURL:         v.GetString(KeyRPCURL),
		PrivateKey:     v.GetString(KeyPrivateKey),
		ChainID:        chainID,
		ArtifactsDir:   v.GetString(KeyArtifactsDir),
		ConfirmTimeout: timeout,
		LogLevel:       v.GetString(KeyLogLevel),
	}, nil
}

func parseChainID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainID, raw)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidChainID, id)
	}
	return id, nil
}

// cast would read a bare "30" as nanoseconds, so the unit is mandatory here
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultConfirmTimeout, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, raw)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidTimeout, raw)
	}
	return timeout, nil
}

func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("%s: %w", EnvRPCURL, ErrMissingRPCURL)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("%s: %w", EnvPrivateKey, ErrMissingPrivateKey)
	}
	if _, err := ParsePrivKey(c.PrivateKey); err != nil {
		return fmt.Errorf("%s: %w", EnvPrivateKey, err)
	}
	return nil
}
