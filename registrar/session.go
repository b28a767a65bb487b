// Package registrar drives the commit-reveal registration protocol of an
// ENS-style registrar controller through a ledger-contract gateway.
package registrar

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/units"
)

// Controller method names.
const (
	MethodRentPrice        = "rentPrice"
	MethodValid            = "valid"
	MethodAvailable        = "available"
	MethodMakeCommitment   = "makeCommitment"
	MethodCommit           = "commit"
	MethodRegister         = "register"
	MethodRenew            = "renew"
	MethodWithdraw         = "withdraw"
	MethodMinCommitmentAge = "minCommitmentAge"
	MethodMaxCommitmentAge = "maxCommitmentAge"
	MethodCommitments      = "commitments"
)

// Session translates registration intents into gateway calls against one
// registrar controller. The gateway, address and defaults never change after
// construction, so a Session is safe for concurrent use.
type Session struct {
	gateway  interfaces.Gateway
	address  common.Address
	defaults interfaces.CallOptions
	log      *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGasLimit sets the gas limit attached to every call.
func WithGasLimit(limit uint64) SessionOption {
	return func(s *Session) {
		s.defaults.GasLimit = limit
	}
}

// WithGasPrice sets the gas price attached to every call.
func WithGasPrice(price *big.Int) SessionOption {
	return func(s *Session) {
		s.defaults.GasPrice = new(big.Int).Set(price)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession creates a session for the controller deployed at address.
func NewSession(gateway interfaces.Gateway, address common.Address, opts ...SessionOption) *Session {
	s := &Session{
		gateway: gateway,
		address: address,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns the controller address.
func (s *Session) Address() common.Address {
	return s.address
}

// readOptions returns fresh options for a read call. Reads never carry a
// sender or value.
func (s *Session) readOptions() interfaces.CallOptions {
	opts := s.defaults.Copy()
	to := s.address
	opts.To = &to
	return opts
}

// writeOptions returns fresh options for a write call from sender, carrying
// value when non-nil.
func (s *Session) writeOptions(sender common.Address, value *big.Int) interfaces.CallOptions {
	opts := s.defaults.Copy()
	to := s.address
	opts.From = &sender
	opts.To = &to
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}
	return opts
}

func (s *Session) read(ctx context.Context, method string, params ...interface{}) (interfaces.ResultMap, error) {
	result, err := s.gateway.Read(ctx, method, params, s.readOptions())
	if err != nil {
		return nil, classify(method, err)
	}
	return result, nil
}

func (s *Session) write(ctx context.Context, method string, opts interfaces.CallOptions, params ...interface{}) (*interfaces.TransactionDescriptor, error) {
	tx, err := s.gateway.Write(ctx, method, params, opts)
	if err != nil {
		return nil, classify(method, err)
	}

	s.log.Debug("Built registrar transaction",
		slog.String("method", method),
		slog.String("from", opts.From.Hex()),
		slog.String("value", valueString(opts.Value)))

	return tx, nil
}

// GetRentPrice returns the price in wei of registering or renewing name for duration.
func (s *Session) GetRentPrice(ctx context.Context, name string, duration uint64) (*big.Int, error) {
	result, err := s.read(ctx, MethodRentPrice, name, new(big.Int).SetUint64(duration))
	if err != nil {
		return nil, err
	}
	return decodeUint(MethodRentPrice, result)
}

// CheckNameValidity reports whether name is acceptable to the controller.
func (s *Session) CheckNameValidity(ctx context.Context, name string) (bool, error) {
	result, err := s.read(ctx, MethodValid, name)
	if err != nil {
		return false, err
	}
	return decodeBool(MethodValid, result)
}

// IsNameAvailable reports whether name can currently be registered.
func (s *Session) IsNameAvailable(ctx context.Context, name string) (bool, error) {
	result, err := s.read(ctx, MethodAvailable, name)
	if err != nil {
		return false, err
	}
	return decodeBool(MethodAvailable, result)
}

// CalculateCommitmentHash asks the controller for the commitment of
// (name, owner, secret). The call does not change ledger state.
func (s *Session) CalculateCommitmentHash(ctx context.Context, name string, owner common.Address, secret interfaces.Secret) (interfaces.CommitmentHash, error) {
	result, err := s.read(ctx, MethodMakeCommitment, name, owner, [32]byte(secret))
	if err != nil {
		return interfaces.CommitmentHash{}, err
	}

	hash, err := decodeWords(MethodMakeCommitment, result)
	if err != nil {
		return interfaces.CommitmentHash{}, err
	}
	return interfaces.CommitmentHash(hash), nil
}

// SubmitCommitment builds the phase one transaction publishing commitment.
func (s *Session) SubmitCommitment(ctx context.Context, sender common.Address, commitment interfaces.CommitmentHash) (*interfaces.TransactionDescriptor, error) {
	return s.write(ctx, MethodCommit, s.writeOptions(sender, nil), [32]byte(commitment))
}

// RegisterName builds the phase two transaction revealing name, owner and
// secret. price is an ether-denominated decimal string attached as value.
// The controller rejects the reveal unless a matching commitment has aged
// enough; that rejection surfaces as a CallError.
func (s *Session) RegisterName(ctx context.Context, sender common.Address, name string, owner common.Address, duration uint64, secret interfaces.Secret, price string) (*interfaces.TransactionDescriptor, error) {
	value, err := parsePrice(price)
	if err != nil {
		return nil, err
	}

	opts := s.writeOptions(sender, value)
	return s.write(ctx, MethodRegister, opts, name, owner, new(big.Int).SetUint64(duration), [32]byte(secret))
}

// ExtendNameRegistration builds a transaction renewing name for duration,
// paying price (ether-denominated decimal string).
func (s *Session) ExtendNameRegistration(ctx context.Context, sender common.Address, name string, duration uint64, price string) (*interfaces.TransactionDescriptor, error) {
	value, err := parsePrice(price)
	if err != nil {
		return nil, err
	}

	opts := s.writeOptions(sender, value)
	return s.write(ctx, MethodRenew, opts, name, new(big.Int).SetUint64(duration))
}

// Withdraw builds a transaction moving the controller's balance to its owner.
// Only the controller owner can execute it; others are rejected remotely.
func (s *Session) Withdraw(ctx context.Context, sender common.Address) (*interfaces.TransactionDescriptor, error) {
	return s.write(ctx, MethodWithdraw, s.writeOptions(sender, nil))
}

// GetMinCommitmentAge returns how long a commitment must exist before it can be revealed.
func (s *Session) GetMinCommitmentAge(ctx context.Context) (time.Duration, error) {
	return s.readSeconds(ctx, MethodMinCommitmentAge)
}

// GetMaxCommitmentAge returns how long a commitment stays revealable.
func (s *Session) GetMaxCommitmentAge(ctx context.Context) (time.Duration, error) {
	return s.readSeconds(ctx, MethodMaxCommitmentAge)
}

// GetCommitmentTimestamp returns the block time at which commitment was
// recorded, or the zero time if the controller does not know it.
func (s *Session) GetCommitmentTimestamp(ctx context.Context, commitment interfaces.CommitmentHash) (time.Time, error) {
	result, err := s.read(ctx, MethodCommitments, [32]byte(commitment))
	if err != nil {
		return time.Time{}, err
	}

	ts, err := decodeUint(MethodCommitments, result)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Sign() == 0 {
		return time.Time{}, nil
	}
	if !ts.IsInt64() {
		return time.Time{}, &DecodeError{Method: MethodCommitments, Field: resultField, Want: "unix timestamp", Got: ts}
	}
	return time.Unix(ts.Int64(), 0).UTC(), nil
}

func (s *Session) readSeconds(ctx context.Context, method string) (time.Duration, error) {
	result, err := s.read(ctx, method)
	if err != nil {
		return 0, err
	}

	secs, err := decodeUint(method, result)
	if err != nil {
		return 0, err
	}
	if !secs.IsInt64() || secs.Int64() > maxDurationSeconds {
		return 0, &DecodeError{Method: method, Field: resultField, Want: "duration in seconds", Got: secs}
	}
	return time.Duration(secs.Int64()) * time.Second, nil
}

const maxDurationSeconds = int64(1<<63-1) / int64(time.Second)

func parsePrice(price string) (*big.Int, error) {
	value, err := units.ParseDecimalToBaseUnits(price, units.Major)
	if err != nil {
		return nil, &AmountParseError{Amount: price, Err: err}
	}
	return value, nil
}

func valueString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
