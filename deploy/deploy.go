package deploy

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nftmarket/deploy-scripts/framework"
	"github.com/sirupsen/logrus"
)

const (
	MarketplaceContract = "Marketplace"
	TokenContract       = "Token"

	// EnvTokenAddress holds the ERC-20 contract the marketplace settles in.
	EnvTokenAddress = "ERC20"
	// tokenAddressSource names both places the token address is read from.
	tokenAddressSource = EnvTokenAddress + "/--token"
)

type Request struct {
	Contract string
	Args     []interface{}
}

type Result struct {
	Contract string
	Address  common.Address
	TxHash   common.Hash
}

// Run deploys req.Contract through svc and waits for the deployment to be
// confirmed. It makes a single attempt.
func Run(ctx context.Context, svc framework.FactoryService, req Request, log *logrus.Entry) (*Result, error) {
	log = orStandard(log).WithField("contract", req.Contract)

	factory, err := svc.ContractFactory(req.Contract)
	if err != nil {
		return nil, &DeploymentError{Contract: req.Contract, Stage: StageFactory, Err: err}
	}

	log.WithField("args", len(req.Args)).Info("Deploying contract")
	deployment, err := factory.Deploy(ctx, req.Args...)
	if err != nil {
		return nil, &DeploymentError{Contract: req.Contract, Stage: StageSubmit, Err: err}
	}

	txHash := deployment.Hash()
	log.WithField("tx", txHash.Hex()).Info("Waiting for deployment to be mined")
	addr, err := deployment.Deployed(ctx)
	if err != nil {
		return nil, &DeploymentError{Contract: req.Contract, Stage: StageConfirm, Err: err}
	}

	log.WithField("address", addr.Hex()).Info("Contract deployed")
	return &Result{
		Contract: req.Contract,
		Address:  addr,
		TxHash:   txHash,
	}, nil
}

type MarketplaceConfig struct {
	TokenAddress string
}

func (c *MarketplaceConfig) Validate() error {
	addr := strings.TrimSpace(c.TokenAddress)
	if addr == "" {
		return &ConfigurationError{Key: tokenAddressSource, Err: ErrMissingConfig}
	}
	if !common.IsHexAddress(addr) {
		return &ConfigurationError{Key: tokenAddressSource, Err: ErrInvalidAddress}
	}
	return nil
}

func DeployMarketplace(ctx context.Context, svc framework.FactoryService, cfg MarketplaceConfig, log *logrus.Entry) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token := common.HexToAddress(strings.TrimSpace(cfg.TokenAddress))

	return Run(ctx, svc, Request{
		Contract: MarketplaceContract,
		Args:     []interface{}{token},
	}, orStandard(log).WithField("token", token.Hex()))
}

func DeployToken(ctx context.Context, svc framework.FactoryService, log *logrus.Entry) (*Result, error) {
	return Run(ctx, svc, Request{Contract: TokenContract}, log)
}

func orStandard(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return log
}
