package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrConstruction is wrapped by gateways when a call or transaction cannot be
	// built from the given method and parameters. Nothing was sent to the ledger.
	ErrConstruction = errors.New("call construction failed")

	// ErrDecode is wrapped by gateways when the ledger returned data that does not
	// unpack according to the method's declared outputs.
	ErrDecode = errors.New("result decoding failed")
)

// ResultMap holds the decoded outputs of a read call, keyed by positional
// index ("0", "1", ...) and additionally by output name when the ABI names it.
type ResultMap map[string]interface{}

// CallOptions carries the per-call configuration handed to a Gateway.
// A fresh value is built for every call; nil fields are left to the gateway.
type CallOptions struct {
	From     *common.Address
	To       *common.Address
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// Copy returns a deep copy so that callers can overlay fields without touching the original.
func (o CallOptions) Copy() CallOptions {
	out := CallOptions{GasLimit: o.GasLimit}
	if o.From != nil {
		from := *o.From
		out.From = &from
	}
	if o.To != nil {
		to := *o.To
		out.To = &to
	}
	if o.Value != nil {
		out.Value = new(big.Int).Set(o.Value)
	}
	if o.GasPrice != nil {
		out.GasPrice = new(big.Int).Set(o.GasPrice)
	}
	return out
}

// TransactionDescriptor is an unsent transaction built by a Gateway.
// The caller owns it and is responsible for signing and broadcasting.
type TransactionDescriptor struct {
	Method   string
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
}

// CallMsg returns the descriptor as a go-ethereum call message, suitable for
// gas estimation or simulation against a node.
func (d *TransactionDescriptor) CallMsg() ethereum.CallMsg {
	to := d.To
	return ethereum.CallMsg{
		From:     d.From,
		To:       &to,
		Gas:      d.Gas,
		GasPrice: d.GasPrice,
		Value:    d.Value,
		Data:     d.Data,
	}
}

type transactionDescriptorJSON struct {
	Method   string         `json:"method"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Value    *hexutil.Big   `json:"value"`
	Data     hexutil.Bytes  `json:"data"`
	Gas      hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big   `json:"gasPrice,omitempty"`
}

// MarshalJSON encodes the descriptor using the JSON-RPC quantity conventions.
func (d TransactionDescriptor) MarshalJSON() ([]byte, error) {
	value := d.Value
	if value == nil {
		value = new(big.Int)
	}
	return json.Marshal(transactionDescriptorJSON{
		Method:   d.Method,
		From:     d.From,
		To:       d.To,
		Value:    (*hexutil.Big)(value),
		Data:     d.Data,
		Gas:      hexutil.Uint64(d.Gas),
		GasPrice: (*hexutil.Big)(d.GasPrice),
	})
}

// UnmarshalJSON decodes a descriptor produced by MarshalJSON.
func (d *TransactionDescriptor) UnmarshalJSON(input []byte) error {
	var dec transactionDescriptorJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	d.Method = dec.Method
	d.From = dec.From
	d.To = dec.To
	d.Value = (*big.Int)(dec.Value)
	d.Data = dec.Data
	d.Gas = uint64(dec.Gas)
	d.GasPrice = (*big.Int)(dec.GasPrice)
	return nil
}

// Gateway encodes contract calls per an ABI, submits reads to the ledger and
// builds unsent transactions for writes.
type Gateway interface {
	// Read performs a non-state-changing call and returns its decoded outputs.
	Read(ctx context.Context, method string, params []interface{}, opts CallOptions) (ResultMap, error)

	// Write builds an unsent transaction invoking method with params.
	Write(ctx context.Context, method string, params []interface{}, opts CallOptions) (*TransactionDescriptor, error)
}
