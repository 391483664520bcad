package framework

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrEmptyBytecode    = errors.New("artifact has no bytecode")
)

// Artifact is a compiled contract as emitted by hardhat or foundry.
type Artifact struct {
	Name string
	Abi  *abi.ABI
	Code []byte
}

type artifactObj struct {
	ContractName string          `json:"contractName"`
	Abi          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// foundry nests the creation code under bytecode.object
type bytecodeObj struct {
	Object string `json:"object"`
}

// ReadArtifact loads the artifact for name from dir. name is either a path
// relative to dir ("Token.sol/Token.json") or a bare contract name, which is
// looked up in the foundry (out/) and hardhat (artifacts/contracts/) layouts.
func ReadArtifact(dir, name string) (*Artifact, error) {
	path, err := resolveArtifact(dir, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var obj artifactObj
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}

	contractAbi, err := abi.JSON(bytes.NewReader(obj.Abi))
	if err != nil {
		return nil, fmt.Errorf("decode abi of %s: %w", path, err)
	}

	code, err := decodeBytecode(obj.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", path, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBytecode)
	}

	artifactName := obj.ContractName
	if artifactName == "" {
		artifactName = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	return &Artifact{
		Name: artifactName,
		Abi:  &contractAbi,
		Code: code,
	}, nil
}

func resolveArtifact(dir, name string) (string, error) {
	var candidates []string
	if strings.HasSuffix(name, ".json") {
		candidates = []string{filepath.Join(dir, name)}
	} else {
		rel := filepath.Join(name+".sol", name+".json")
		candidates = []string{
			filepath.Join(dir, rel),
			filepath.Join(dir, "contracts", rel),
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s in %s: %w", name, dir, ErrArtifactNotFound)
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var hexCode string
	if err := json.Unmarshal(raw, &hexCode); err != nil {
		var obj bytecodeObj
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		hexCode = obj.Object
	}

	if hexCode == "" || hexCode == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(hexCode, "0x") {
		hexCode = "0x" + hexCode
	}
	return hexutil.Decode(hexCode)
}
