package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/registrar"
)

var (
	controllerAddr = common.HexToAddress("0x283Af0B28c62C092C9727F1Ee09c02CA627EB7F5")
	senderAddr     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	ownerAddr      = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeBackend executes calls against in-memory handlers keyed by method name.
// Methods without a handler behave like an address without code.
type fakeBackend struct {
	abi      abi.ABI
	handlers map[string]func(args []interface{}) ([]interface{}, error)
	raw      map[string][]byte
	gas      uint64
	gasErr   error

	mu        sync.Mutex
	calls     []ethereum.CallMsg
	estimates []ethereum.CallMsg
}

func newFakeBackend(t *testing.T) *fakeBackend {
	parsed, err := abi.JSON(strings.NewReader(RegistrarControllerABI))
	require.NoError(t, err)
	return &fakeBackend{
		abi:      parsed,
		handlers: map[string]func(args []interface{}) ([]interface{}, error){},
		raw:      map[string][]byte{},
	}
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, msg)
	f.mu.Unlock()

	m, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if out, ok := f.raw[m.Name]; ok {
		return out, nil
	}
	handler, ok := f.handlers[m.Name]
	if !ok {
		return nil, nil
	}

	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := handler(args)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(out...)
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimates = append(f.estimates, msg)
	return f.gas, f.gasErr
}

func (f *fakeBackend) lastCall() ethereum.CallMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T, backend *fakeBackend, opts ...Option) *EthGateway {
	gw, err := NewEthGateway(backend, testLogger(), opts...)
	require.NoError(t, err)
	return gw
}

func to() *common.Address {
	addr := controllerAddr
	return &addr
}

func from() *common.Address {
	addr := senderAddr
	return &addr
}

func TestRead_RentPrice(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handlers["rentPrice"] = func(args []interface{}) ([]interface{}, error) {
		name := args[0].(string)
		duration := args[1].(*big.Int)
		perSecond := big.NewInt(int64(1000 / len(name)))
		return []interface{}{new(big.Int).Mul(perSecond, duration)}, nil
	}
	gw := newTestGateway(t, backend)

	result, err := gw.Read(context.Background(), "rentPrice", []interface{}{"abcde", big.NewInt(100)}, interfaces.CallOptions{To: to()})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20000), result["0"])

	call := backend.lastCall()
	assert.Equal(t, controllerAddr, *call.To)
	assert.Equal(t, common.Address{}, call.From)
	assert.Equal(t, backend.abi.Methods["rentPrice"].ID, call.Data[:4])
}

func TestRead_Errors(t *testing.T) {
	backend := newFakeBackend(t)
	backend.raw["available"] = []byte{0x01, 0x02, 0x03}
	backend.handlers["valid"] = func([]interface{}) ([]interface{}, error) {
		return nil, errors.New("execution reverted")
	}
	gw := newTestGateway(t, backend)
	ctx := context.Background()

	tests := []struct {
		name    string
		method  string
		params  []interface{}
		opts    interfaces.CallOptions
		wantErr error
		kind    string
	}{
		{name: "unknown method", method: "transfer", params: nil, opts: interfaces.CallOptions{To: to()}, wantErr: interfaces.ErrConstruction},
		{name: "bad argument type", method: "rentPrice", params: []interface{}{"example", "one year"}, opts: interfaces.CallOptions{To: to()}, wantErr: interfaces.ErrConstruction},
		{name: "missing argument", method: "rentPrice", params: []interface{}{"example"}, opts: interfaces.CallOptions{To: to()}, wantErr: interfaces.ErrConstruction},
		{name: "missing address", method: "valid", params: []interface{}{"example"}, opts: interfaces.CallOptions{}, wantErr: interfaces.ErrConstruction},
		{name: "malformed output", method: "available", params: []interface{}{"example"}, opts: interfaces.CallOptions{To: to()}, wantErr: interfaces.ErrDecode},
		{name: "no code", method: "minCommitmentAge", params: nil, opts: interfaces.CallOptions{To: to()}, wantErr: ErrNoCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := gw.Read(ctx, tt.method, tt.params, tt.opts)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("revert", func(t *testing.T) {
		_, err := gw.Read(ctx, "valid", []interface{}{"example"}, interfaces.CallOptions{To: to()})
		require.Error(t, err)
		assert.NotErrorIs(t, err, interfaces.ErrConstruction)
		assert.NotErrorIs(t, err, interfaces.ErrDecode)
		assert.Contains(t, err.Error(), "execution reverted")
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := gw.Read(cancelled, "valid", []interface{}{"example"}, interfaces.CallOptions{To: to()})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWrite_Register(t *testing.T) {
	backend := newFakeBackend(t)
	gw := newTestGateway(t, backend)

	secret := [32]byte{0x01, 0x02}
	value := big.NewInt(1500)
	opts := interfaces.CallOptions{From: from(), To: to(), Value: value, GasLimit: 300000}

	tx, err := gw.Write(context.Background(), "register",
		[]interface{}{"example", ownerAddr, big.NewInt(31536000), secret}, opts)
	require.NoError(t, err)

	assert.Equal(t, "register", tx.Method)
	assert.Equal(t, senderAddr, tx.From)
	assert.Equal(t, controllerAddr, tx.To)
	assert.Equal(t, uint64(300000), tx.Gas)
	assert.Equal(t, 0, tx.Value.Cmp(big.NewInt(1500)))

	expected, err := backend.abi.Pack("register", "example", ownerAddr, big.NewInt(31536000), secret)
	require.NoError(t, err)
	assert.Equal(t, expected, tx.Data)

	// The descriptor owns its value.
	value.SetInt64(1)
	assert.Equal(t, 0, tx.Value.Cmp(big.NewInt(1500)))

	// Writes are never executed.
	assert.Empty(t, backend.calls)
	assert.Empty(t, backend.estimates)
}

func TestWrite_Errors(t *testing.T) {
	backend := newFakeBackend(t)
	gw := newTestGateway(t, backend)
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		params []interface{}
		opts   interfaces.CallOptions
	}{
		{name: "missing sender", method: "withdraw", opts: interfaces.CallOptions{To: to()}},
		{name: "missing address", method: "withdraw", opts: interfaces.CallOptions{From: from()}},
		{name: "value to non-payable", method: "commit", params: []interface{}{[32]byte{}}, opts: interfaces.CallOptions{From: from(), To: to(), Value: big.NewInt(1)}},
		{name: "negative value", method: "renew", params: []interface{}{"example", big.NewInt(1)}, opts: interfaces.CallOptions{From: from(), To: to(), Value: big.NewInt(-1)}},
		{name: "wrong commitment type", method: "commit", params: []interface{}{"0x01"}, opts: interfaces.CallOptions{From: from(), To: to()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := gw.Write(ctx, tt.method, tt.params, tt.opts)
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, interfaces.ErrConstruction)
		})
	}
}

func TestWrite_GasEstimation(t *testing.T) {
	backend := newFakeBackend(t)
	backend.gas = 46000
	gw := newTestGateway(t, backend, WithGasEstimation())
	ctx := context.Background()

	tx, err := gw.Write(ctx, "commit", []interface{}{[32]byte{0xaa}}, interfaces.CallOptions{From: from(), To: to()})
	require.NoError(t, err)
	assert.Equal(t, uint64(46000), tx.Gas)
	require.Len(t, backend.estimates, 1)
	assert.Equal(t, senderAddr, backend.estimates[0].From)
	assert.Equal(t, tx.Data, backend.estimates[0].Data)

	// An explicit limit wins.
	tx, err = gw.Write(ctx, "commit", []interface{}{[32]byte{0xaa}}, interfaces.CallOptions{From: from(), To: to(), GasLimit: 50000})
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), tx.Gas)
	assert.Len(t, backend.estimates, 1)

	backend.gasErr = errors.New("execution reverted: Commitment already exists")
	_, err = gw.Write(ctx, "commit", []interface{}{[32]byte{0xaa}}, interfaces.CallOptions{From: from(), To: to()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrConstruction)
}

func TestMetrics(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handlers["valid"] = func([]interface{}) ([]interface{}, error) {
		return []interface{}{true}, nil
	}
	gw := newTestGateway(t, backend)
	ctx := context.Background()

	ok := gatewayCalls.WithLabelValues("valid", "read", "ok")
	constructionErr := gatewayCalls.WithLabelValues("withdraw", "write", "construction_error")
	okBefore := testutil.ToFloat64(ok)
	errBefore := testutil.ToFloat64(constructionErr)

	_, err := gw.Read(ctx, "valid", []interface{}{"example"}, interfaces.CallOptions{To: to()})
	require.NoError(t, err)
	_, err = gw.Write(ctx, "withdraw", nil, interfaces.CallOptions{To: to()})
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(constructionErr))
}

// newControllerBackend emulates the read side of a registrar controller.
func newControllerBackend(t *testing.T) *fakeBackend {
	backend := newFakeBackend(t)
	backend.handlers["rentPrice"] = func(args []interface{}) ([]interface{}, error) {
		return []interface{}{new(big.Int).Mul(big.NewInt(3170979198), args[1].(*big.Int))}, nil
	}
	backend.handlers["valid"] = func(args []interface{}) ([]interface{}, error) {
		return []interface{}{len(args[0].(string)) >= 3}, nil
	}
	backend.handlers["available"] = func(args []interface{}) ([]interface{}, error) {
		return []interface{}{args[0].(string) != "taken"}, nil
	}
	backend.handlers["makeCommitment"] = func(args []interface{}) ([]interface{}, error) {
		name := args[0].(string)
		owner := args[1].(common.Address)
		secret := args[2].([32]byte)
		label := crypto.Keccak256([]byte(name))
		return []interface{}{[32]byte(crypto.Keccak256Hash(label, owner.Bytes(), secret[:]))}, nil
	}
	backend.handlers["minCommitmentAge"] = func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(60)}, nil
	}
	backend.handlers["maxCommitmentAge"] = func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(86400)}, nil
	}
	return backend
}

func TestSessionOverGateway(t *testing.T) {
	backend := newControllerBackend(t)
	gw := newTestGateway(t, backend)
	session := registrar.NewSession(gw, controllerAddr, registrar.WithLogger(testLogger()))
	ctx := context.Background()

	price, err := session.GetRentPrice(ctx, "example", 31536000)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Mul(big.NewInt(3170979198), big.NewInt(31536000)).Cmp(price))

	valid, err := session.CheckNameValidity(ctx, "ab")
	require.NoError(t, err)
	assert.False(t, valid)

	available, err := session.IsNameAvailable(ctx, "taken")
	require.NoError(t, err)
	assert.False(t, available)

	secret := interfaces.SecretFromWords([8]uint32{1, 2, 3, 4, 5, 6, 7, 8})
	commitment, err := session.CalculateCommitmentHash(ctx, "example", ownerAddr, secret)
	require.NoError(t, err)
	assert.Equal(t, registrar.ComputeCommitment("example", ownerAddr, secret), commitment)

	// The commit calldata carries the commitment byte for byte.
	tx, err := session.SubmitCommitment(ctx, senderAddr, commitment)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(tx.Data, commitment[:]))

	tx, err = session.RegisterName(ctx, senderAddr, "example", ownerAddr, 31536000, secret, "1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", tx.Value.String())

	minAge, err := session.GetMinCommitmentAge(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1m0s", minAge.String())

	// Reads through the session never carry a sender.
	assert.Equal(t, common.Address{}, backend.lastCall().From)
}

func TestSessionOverGateway_ErrorKinds(t *testing.T) {
	backend := newFakeBackend(t)
	backend.raw["rentPrice"] = []byte{0xff}
	gw := newTestGateway(t, backend)
	session := registrar.NewSession(gw, controllerAddr, registrar.WithLogger(testLogger()))
	ctx := context.Background()

	_, err := session.GetRentPrice(ctx, "example", 1)
	var decodeErr *registrar.DecodeError
	assert.ErrorAs(t, err, &decodeErr, fmt.Sprintf("%v", err))

	_, err = session.IsNameAvailable(ctx, "example")
	var callErr *registrar.CallError
	assert.ErrorAs(t, err, &callErr)
	assert.ErrorIs(t, err, ErrNoCode)

	_, err = session.Withdraw(ctx, senderAddr)
	assert.NoError(t, err)
}
