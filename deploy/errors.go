package deploy

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfig  = errors.New("missing configuration value")
	ErrInvalidAddress = errors.New("not a hex encoded address")
)

// ConfigurationError is returned when the run is rejected before anything is
// sent to the network.
type ConfigurationError struct {
	// Key names the setting at fault (env var and/or flag), empty when the
	// cause already names it.
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type Stage string

const (
	StageFactory Stage = "factory"
	StageSubmit  Stage = "submit"
	StageConfirm Stage = "confirm"
)

// DeploymentError wraps any failure between obtaining the contract factory
// and the deployment being confirmed.
type DeploymentError struct {
	Contract string
	Stage    Stage
	Err      error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment of %s failed at %s: %v", e.Contract, e.Stage, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}
