// Package gateway encodes registrar controller calls with the contract ABI
// and executes them against an Ethereum JSON-RPC backend.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/ruteri/registrar-controller/interfaces"
)

// ErrNoCode is returned when a read comes back empty, which is what nodes
// answer for calls to an address without contract code.
var ErrNoCode = errors.New("no contract code at given address")

// Backend is the subset of the node API the gateway needs.
// *ethclient.Client satisfies it.
type Backend interface {
	ethereum.ContractCaller
	ethereum.GasEstimator
}

// EthGateway implements interfaces.Gateway on top of go-ethereum's ABI codec.
// Reads are executed with eth_call at the latest block. Writes are packed
// into transaction descriptors and handed back unsigned.
type EthGateway struct {
	backend     Backend
	abi         abi.ABI
	estimateGas bool
	log         *slog.Logger
}

// Option configures an EthGateway.
type Option func(*EthGateway)

// WithGasEstimation fills in the gas of write descriptors that carry no
// explicit gas limit by calling eth_estimateGas.
func WithGasEstimation() Option {
	return func(g *EthGateway) {
		g.estimateGas = true
	}
}

// WithABI replaces the controller ABI, e.g. for controller forks that keep
// the method names.
func WithABI(contractABI abi.ABI) Option {
	return func(g *EthGateway) {
		g.abi = contractABI
	}
}

// NewEthGateway creates a gateway using the registrar controller ABI.
func NewEthGateway(backend Backend, log *slog.Logger, opts ...Option) (*EthGateway, error) {
	parsed, err := abi.JSON(strings.NewReader(RegistrarControllerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse controller ABI: %w", err)
	}

	g := &EthGateway{
		backend: backend,
		abi:     parsed,
		log:     log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Read executes a constant method and returns its decoded outputs. Outputs
// are keyed by position ("0", "1", ...) and additionally by name when the
// ABI names them.
func (g *EthGateway) Read(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (interfaces.ResultMap, error) {
	start := time.Now()
	result, err := g.read(ctx, method, params, opts)
	observeCall(method, "read", start, err)
	if err != nil {
		g.log.Debug("Contract read failed", slog.String("method", method), "err", err)
	}
	return result, err
}

func (g *EthGateway) read(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (interfaces.ResultMap, error) {
	m, input, err := g.pack(method, params)
	if err != nil {
		return nil, err
	}
	if opts.To == nil {
		return nil, fmt.Errorf("%w: %s: missing contract address", interfaces.ErrConstruction, method)
	}

	msg := ethereum.CallMsg{
		To:       opts.To,
		Gas:      opts.GasLimit,
		GasPrice: opts.GasPrice,
		Data:     input,
	}
	if opts.From != nil {
		msg.From = *opts.From
	}

	output, err := g.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", method, err)
	}
	if len(output) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("eth_call %s at %s: %w", method, opts.To.Hex(), ErrNoCode)
	}

	values, err := m.Outputs.Unpack(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrDecode, method, err)
	}

	result := make(interfaces.ResultMap, 2*len(values))
	for i, v := range values {
		result[strconv.Itoa(i)] = v
		if name := m.Outputs[i].Name; name != "" {
			result[name] = v
		}
	}
	return result, nil
}

// Write packs a state-changing call into a transaction descriptor.
func (g *EthGateway) Write(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (*interfaces.TransactionDescriptor, error) {
	start := time.Now()
	tx, err := g.write(ctx, method, params, opts)
	observeCall(method, "write", start, err)
	if err != nil {
		g.log.Debug("Contract write failed", slog.String("method", method), "err", err)
	}
	return tx, err
}

func (g *EthGateway) write(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (*interfaces.TransactionDescriptor, error) {
	m, input, err := g.pack(method, params)
	if err != nil {
		return nil, err
	}
	if opts.To == nil {
		return nil, fmt.Errorf("%w: %s: missing contract address", interfaces.ErrConstruction, method)
	}
	if opts.From == nil {
		return nil, fmt.Errorf("%w: %s: missing sender", interfaces.ErrConstruction, method)
	}

	value := new(big.Int)
	if opts.Value != nil {
		if opts.Value.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s: negative value %s", interfaces.ErrConstruction, method, opts.Value)
		}
		value.Set(opts.Value)
	}
	if value.Sign() > 0 && !m.IsPayable() {
		return nil, fmt.Errorf("%w: %s is not payable", interfaces.ErrConstruction, method)
	}

	tx := &interfaces.TransactionDescriptor{
		Method: method,
		From:   *opts.From,
		To:     *opts.To,
		Value:  value,
		Data:   input,
		Gas:    opts.GasLimit,
	}
	if opts.GasPrice != nil {
		tx.GasPrice = new(big.Int).Set(opts.GasPrice)
	}

	if tx.Gas == 0 && g.estimateGas {
		gas, err := g.backend.EstimateGas(ctx, tx.CallMsg())
		if err != nil {
			return nil, fmt.Errorf("eth_estimateGas %s: %w", method, err)
		}
		tx.Gas = gas
	}

	return tx, nil
}

func (g *EthGateway) pack(method string, params []interface{}) (abi.Method, []byte, error) {
	m, ok := g.abi.Methods[method]
	if !ok {
		return abi.Method{}, nil, fmt.Errorf("%w: unknown method %q", interfaces.ErrConstruction, method)
	}

	input, err := g.abi.Pack(method, params...)
	if err != nil {
		return abi.Method{}, nil, fmt.Errorf("%w: %s: %v", interfaces.ErrConstruction, method, err)
	}
	return m, input, nil
}
