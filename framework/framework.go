package framework

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

var errNoBackend = errors.New("framework has no backend")

// Backend is the subset of a chain client needed to submit contract
// creations and wait for them to be mined.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// FactoryService hands out factories for named contract artifacts.
type FactoryService interface {
	ContractFactory(name string) (ContractFactory, error)
}

// ContractFactory deploys new instances of a single contract artifact.
type ContractFactory interface {
	Name() string
	Deploy(ctx context.Context, args ...interface{}) (Deployment, error)
}

// Deployment is a submitted contract creation transaction.
type Deployment interface {
	Hash() common.Hash
	// Deployed blocks until the transaction is mined and code is live at the
	// contract address.
	Deployed(ctx context.Context) (common.Address, error)
}

type Framework struct {
	backend        Backend
	client         *ethclient.Client
	key            *PrivKey
	chainID        *big.Int
	artifactsDir   string
	confirmTimeout time.Duration
	log            *logrus.Entry
}

type Option func(*Framework)

func WithArtifactsDir(dir string) Option {
	return func(f *Framework) { f.artifactsDir = dir }
}

func WithConfirmTimeout(timeout time.Duration) Option {
	return func(f *Framework) { f.confirmTimeout = timeout }
}

func WithLogger(log *logrus.Entry) Option {
	return func(f *Framework) {
		if log != nil {
			f.log = log
		}
	}
}

func NewWithBackend(backend Backend, key *PrivKey, chainID *big.Int, opts ...Option) *Framework {
	f := &Framework{
		backend:        backend,
		key:            key,
		chainID:        chainID,
		artifactsDir:   DefaultArtifactsDir,
		confirmTimeout: DefaultConfirmTimeout,
		log:            logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dial connects to cfg.RPCURL and returns a Framework signing with
// cfg.PrivateKey. The chain id is fetched from the node unless configured.
func Dial(ctx context.Context, cfg *Config, log *logrus.Entry) (*Framework, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := ParsePrivKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCURL, err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to fetch chain id: %w", err)
		}
	}

	fr := NewWithBackend(client, key, chainID,
		WithArtifactsDir(cfg.ArtifactsDir),
		WithConfirmTimeout(cfg.ConfirmTimeout),
		WithLogger(log),
	)
	fr.client = client

	fr.log.WithFields(logrus.Fields{
		"rpc":      cfg.RPCURL,
		"chainID":  chainID,
		"deployer": fr.Deployer().Hex(),
	}).Debug("connected")
	return fr, nil
}

func (f *Framework) Close() {
	if f.client != nil {
		f.client.Close()
	}
}

func (f *Framework) Deployer() common.Address {
	return f.key.Address()
}

func (f *Framework) ContractFactory(name string) (ContractFactory, error) {
	factory, err := f.factory(name)
	if err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *Framework) factory(name string) (*artifactFactory, error) {
	if f.backend == nil {
		return nil, errNoBackend
	}
	artifact, err := ReadArtifact(f.artifactsDir, name)
	if err != nil {
		return nil, err
	}
	return &artifactFactory{fr: f, artifact: artifact}, nil
}

// DeployContract deploys the named artifact and waits for it to be live.
func (f *Framework) DeployContract(ctx context.Context, name string, args ...interface{}) (*Contract, error) {
	factory, err := f.factory(name)
	if err != nil {
		return nil, err
	}
	deployment, err := factory.Deploy(ctx, args...)
	if err != nil {
		return nil, err
	}
	addr, err := deployment.Deployed(ctx)
	if err != nil {
		return nil, err
	}
	return &Contract{addr: addr, abi: factory.artifact.Abi}, nil
}

func (f *Framework) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(f.key.Priv, f.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	return auth, nil
}

type artifactFactory struct {
	fr       *Framework
	artifact *Artifact
}

func (a *artifactFactory) Name() string {
	return a.artifact.Name
}

func (a *artifactFactory) Deploy(ctx context.Context, args ...interface{}) (Deployment, error) {
	auth, err := a.fr.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	addr, tx, _, err := bind.DeployContract(auth, *a.artifact.Abi, a.artifact.Code, a.fr.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", a.artifact.Name, err)
	}

	a.fr.log.WithFields(logrus.Fields{
		"contract": a.artifact.Name,
		"tx":       tx.Hash().Hex(),
		"address":  addr.Hex(),
	}).Debug("deployment transaction sent")

	return &pendingDeployment{fr: a.fr, tx: tx}, nil
}

type pendingDeployment struct {
	fr *Framework
	tx *types.Transaction
}

func (p *pendingDeployment) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *pendingDeployment) Deployed(ctx context.Context) (common.Address, error) {
	if p.fr.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fr.confirmTimeout)
		defer cancel()
	}
	addr, err := bind.WaitDeployed(ctx, p.fr.backend, p.tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("waiting for %s: %w", p.tx.Hash().Hex(), err)
	}
	return addr, nil
}

type Contract struct {
	addr common.Address
	abi  *abi.ABI
}

func (c *Contract) Address() common.Address {
	return c.addr
}

func (c *Contract) Abi() *abi.ABI {
	return c.abi
}
