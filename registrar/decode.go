package registrar

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/registrar-controller/interfaces"
)

// resultField is the positional key of the first output.
const resultField = "0"

func decodeUint(method string, result interfaces.ResultMap) (*big.Int, error) {
	v, ok := result[resultField]
	if !ok || v == nil {
		return nil, &DecodeError{Method: method, Field: resultField, Want: "unsigned integer"}
	}

	switch n := v.(type) {
	case *big.Int:
		if n.Sign() < 0 {
			return nil, &DecodeError{Method: method, Field: resultField, Want: "unsigned integer", Got: v}
		}
		return new(big.Int).Set(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	default:
		return nil, &DecodeError{Method: method, Field: resultField, Want: "unsigned integer", Got: v}
	}
}

func decodeBool(method string, result interfaces.ResultMap) (bool, error) {
	v, ok := result[resultField]
	if !ok || v == nil {
		return false, &DecodeError{Method: method, Field: resultField, Want: "bool"}
	}

	b, ok := v.(bool)
	if !ok {
		return false, &DecodeError{Method: method, Field: resultField, Want: "bool", Got: v}
	}
	return b, nil
}

func decodeWords(method string, result interfaces.ResultMap) ([32]byte, error) {
	v, ok := result[resultField]
	if !ok || v == nil {
		return [32]byte{}, &DecodeError{Method: method, Field: resultField, Want: "bytes32"}
	}

	switch h := v.(type) {
	case [32]byte:
		return h, nil
	case interfaces.CommitmentHash:
		return h, nil
	case common.Hash:
		return h, nil
	case [interfaces.WordCount]uint32:
		return interfaces.CommitmentFromWords(h), nil
	case []uint32:
		if len(h) != interfaces.WordCount {
			return [32]byte{}, &DecodeError{Method: method, Field: resultField, Want: "bytes32", Got: v}
		}
		var words [interfaces.WordCount]uint32
		copy(words[:], h)
		return interfaces.CommitmentFromWords(words), nil
	default:
		return [32]byte{}, &DecodeError{Method: method, Field: resultField, Want: "bytes32", Got: v}
	}
}
