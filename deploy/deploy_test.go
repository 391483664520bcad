package deploy

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nftmarket/deploy-scripts/framework"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testTokenAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

var (
	deployedAddr = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	deployTxHash = common.HexToHash("0x01")

	errNetwork = errors.New("connection refused")
)

type fakeService struct {
	factoryErr error
	deployErr  error
	confirmErr error

	requested []string
	args      [][]interface{}
	closed    bool
}

func (s *fakeService) ContractFactory(name string) (framework.ContractFactory, error) {
	s.requested = append(s.requested, name)
	if s.factoryErr != nil {
		return nil, s.factoryErr
	}
	return &fakeFactory{svc: s, name: name}, nil
}

func (s *fakeService) Close() {
	s.closed = true
}

type fakeFactory struct {
	svc  *fakeService
	name string
}

func (f *fakeFactory) Name() string {
	return f.name
}

func (f *fakeFactory) Deploy(_ context.Context, args ...interface{}) (framework.Deployment, error) {
	f.svc.args = append(f.svc.args, args)
	if f.svc.deployErr != nil {
		return nil, f.svc.deployErr
	}
	return &fakeDeployment{err: f.svc.confirmErr}, nil
}

type fakeDeployment struct {
	err error
}

func (d *fakeDeployment) Hash() common.Hash {
	return deployTxHash
}

func (d *fakeDeployment) Deployed(context.Context) (common.Address, error) {
	if d.err != nil {
		return common.Address{}, d.err
	}
	return deployedAddr, nil
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestDeployToken(t *testing.T) {
	svc := &fakeService{}

	res, err := DeployToken(context.Background(), svc, testLogger())
	require.NoError(t, err)
	require.Equal(t, TokenContract, res.Contract)
	require.Equal(t, deployedAddr, res.Address)
	require.Equal(t, deployTxHash, res.TxHash)

	require.Equal(t, []string{TokenContract}, svc.requested)
	require.Len(t, svc.args, 1)
	require.Empty(t, svc.args[0])
}

func TestDeployMarketplace(t *testing.T) {
	svc := &fakeService{}

	res, err := DeployMarketplace(context.Background(), svc, MarketplaceConfig{TokenAddress: testTokenAddr}, testLogger())
	require.NoError(t, err)
	require.Equal(t, MarketplaceContract, res.Contract)
	require.Equal(t, deployedAddr, res.Address)

	require.Equal(t, []string{MarketplaceContract}, svc.requested)
	require.Len(t, svc.args, 1)
	require.Equal(t, []interface{}{common.HexToAddress(testTokenAddr)}, svc.args[0])
}

func TestDeployMarketplaceConfiguration(t *testing.T) {
	for name, tc := range map[string]struct {
		token string
		want  error
	}{
		"missing":   {token: "", want: ErrMissingConfig},
		"blank":     {token: "   ", want: ErrMissingConfig},
		"not hex":   {token: "0xnot-an-address", want: ErrInvalidAddress},
		"too short": {token: "0x1234", want: ErrInvalidAddress},
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}

			_, err := DeployMarketplace(context.Background(), svc, MarketplaceConfig{TokenAddress: tc.token}, testLogger())
			require.ErrorIs(t, err, tc.want)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, "ERC20/--token", cfgErr.Key)

			var deployErr *DeploymentError
			require.False(t, errors.As(err, &deployErr))

			// the factory is never asked for anything
			require.Empty(t, svc.requested)
		})
	}
}

func TestRunFailureStages(t *testing.T) {
	for name, tc := range map[string]struct {
		svc   *fakeService
		stage Stage
	}{
		"factory": {svc: &fakeService{factoryErr: errNetwork}, stage: StageFactory},
		"submit":  {svc: &fakeService{deployErr: errNetwork}, stage: StageSubmit},
		"confirm": {svc: &fakeService{confirmErr: errNetwork}, stage: StageConfirm},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Run(context.Background(), tc.svc, Request{Contract: TokenContract}, nil)
			require.Nil(t, res)
			require.ErrorIs(t, err, errNetwork)

			var deployErr *DeploymentError
			require.ErrorAs(t, err, &deployErr)
			require.Equal(t, tc.stage, deployErr.Stage)
			require.Equal(t, TokenContract, deployErr.Contract)
			require.Contains(t, err.Error(), "connection refused")
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := &ConfigurationError{Key: EnvTokenAddress, Err: ErrMissingConfig}
	require.Equal(t, "configuration error: ERC20: missing configuration value", err.Error())

	err = &ConfigurationError{Err: ErrMissingConfig}
	require.Equal(t, "configuration error: missing configuration value", err.Error())

	deployErr := &DeploymentError{Contract: TokenContract, Stage: StageSubmit, Err: errNetwork}
	require.Equal(t, "deployment of Token failed at submit: connection refused", deployErr.Error())
}
