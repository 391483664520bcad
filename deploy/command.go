package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/nftmarket/deploy-scripts/framework"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const keyTokenAddress = "erc20"

// Connector opens the factory service a command deploys through.
type Connector func(ctx context.Context, cfg *framework.Config, log *logrus.Entry) (framework.FactoryService, error)

// DialFramework is the Connector used by the deploy programs.
func DialFramework(ctx context.Context, cfg *framework.Config, log *logrus.Entry) (framework.FactoryService, error) {
	fr, err := framework.Dial(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

type deployFunc func(ctx context.Context, svc framework.FactoryService, log *logrus.Entry) (*Result, error)

type script struct {
	contract string
	v        *viper.Viper
	connect  Connector

	// validate checks script specific settings before anything is dialled
	validate func() error
	deploy   deployFunc
}

func NewTokenCommand(connect Connector) *cobra.Command {
	s := &script{
		contract: TokenContract,
		v:        viper.New(),
		connect:  connect,
		deploy: func(ctx context.Context, svc framework.FactoryService, log *logrus.Entry) (*Result, error) {
			return DeployToken(ctx, svc, log)
		},
	}
	return s.command("deploy-token", "Deploy the Token contract")
}

func NewMarketplaceCommand(connect Connector) *cobra.Command {
	s := &script{
		contract: MarketplaceContract,
		v:        viper.New(),
		connect:  connect,
	}
	marketplaceCfg := func() MarketplaceConfig {
		return MarketplaceConfig{TokenAddress: s.v.GetString(keyTokenAddress)}
	}
	s.validate = func() error {
		cfg := marketplaceCfg()
		return cfg.Validate()
	}
	s.deploy = func(ctx context.Context, svc framework.FactoryService, log *logrus.Entry) (*Result, error) {
		return DeployMarketplace(ctx, svc, marketplaceCfg(), log)
	}

	cmd := s.command("deploy-marketplace", "Deploy the Marketplace contract bound to an ERC-20 token")
	cmd.Flags().String("token", "", "address of the ERC-20 token contract (env "+EnvTokenAddress+")")
	// both calls only fail on a nil flag or empty key
	_ = s.v.BindPFlag(keyTokenAddress, cmd.Flags().Lookup("token"))
	_ = s.v.BindEnv(keyTokenAddress, EnvTokenAddress)
	return cmd
}

func (s *script) command(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          s.run,
	}
	if err := framework.RegisterFlags(cmd.Flags(), s.v); err != nil {
		panic(err)
	}
	return cmd
}

func (s *script) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := framework.LoadConfig(s.v)
	if err != nil {
		return &ConfigurationError{Err: err}
	}

	log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return &ConfigurationError{Key: framework.EnvLogLevel, Err: err}
	}

	if s.validate != nil {
		if err := s.validate(); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigurationError{Err: err}
	}

	svc, err := s.connect(ctx, cfg, log)
	if err != nil {
		return &DeploymentError{Contract: s.contract, Stage: StageFactory, Err: err}
	}
	if c, ok := svc.(interface{ Close() }); ok {
		defer c.Close()
	}

	res, err := s.deploy(ctx, svc, log)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Contract's address:", res.Address.Hex())
	return nil
}

func newLogger(level string, out io.Writer) (*logrus.Entry, error) {
	log := logrus.NewEntry(logrus.New())
	log.Logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.Logger.SetLevel(lvl)
	return log, nil
}

// Execute runs cmd once and maps the outcome to a process exit code. Errors
// are written to stderr only.
func Execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
