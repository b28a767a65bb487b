package registrar

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/storage"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(t *testing.T, gw *MockGateway, opts ...TrackerOption) (*Tracker, *testClock) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewFileBackend(t.TempDir(), log)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]TrackerOption{WithClock(clock.Now), WithTrackerLogger(log)}, opts...)
	return NewTracker(newTestSession(gw), store, opts...), clock
}

func expectCommit(gw *MockGateway, commitment interfaces.CommitmentHash) {
	gw.On("Read", mock.Anything, MethodMakeCommitment, []interface{}{"example", ownerAddr, [32]byte(testSecret)}, readOpts()).
		Return(interfaces.ResultMap{"0": [32]byte(commitment)}, nil)
	gw.On("Write", mock.Anything, MethodCommit, []interface{}{[32]byte(commitment)}, writeOpts(senderAddr, nil)).
		Return(&interfaces.TransactionDescriptor{Method: MethodCommit}, nil)
}

func expectAges(gw *MockGateway, minAge, maxAge int64) {
	gw.On("Read", mock.Anything, MethodMinCommitmentAge, []interface{}(nil), readOpts()).
		Return(interfaces.ResultMap{"0": big.NewInt(minAge)}, nil)
	gw.On("Read", mock.Anything, MethodMaxCommitmentAge, []interface{}(nil), readOpts()).
		Return(interfaces.ResultMap{"0": big.NewInt(maxAge)}, nil)
}

func TestTracker_Lifecycle(t *testing.T) {
	gw := new(MockGateway)
	tracker, clock := newTestTracker(t, gw)
	ctx := context.Background()

	status, err := tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseUncommitted, status.Phase)

	commitment := ComputeCommitment("example", ownerAddr, testSecret)
	expectCommit(gw, commitment)

	tx, record, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	require.NoError(t, err)
	assert.Equal(t, MethodCommit, tx.Method)
	assert.Equal(t, interfaces.PhaseCommitted, record.Phase)
	assert.Equal(t, commitment, record.Commitment)
	assert.Equal(t, clock.now, record.SubmittedAt)

	status, err = tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, record, status)

	expectAges(gw, 60, 86400)
	clock.Advance(2 * time.Minute)

	// The reveal carries the owner and secret stored at commit time.
	gw.On("Write", mock.Anything, MethodRegister,
		[]interface{}{"example", ownerAddr, big.NewInt(31536000), [32]byte(testSecret)},
		writeOpts(senderAddr, oneAndAHalfEth)).
		Return(&interfaces.TransactionDescriptor{Method: MethodRegister}, nil)

	tx, err = tracker.Register(ctx, senderAddr, "example", 31536000, "1.5")
	require.NoError(t, err)
	assert.Equal(t, MethodRegister, tx.Method)

	status, err = tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseRegistered, status.Phase)
	assert.Equal(t, clock.now, status.RegisteredAt)

	// A registered name cannot be revealed again.
	_, err = tracker.Register(ctx, senderAddr, "example", 31536000, "1.5")
	assert.ErrorIs(t, err, ErrNotCommitted)

	gw.AssertExpectations(t)
}

func TestTracker_RegisterWithoutCommit(t *testing.T) {
	gw := new(MockGateway)
	tracker, _ := newTestTracker(t, gw)

	tx, err := tracker.Register(context.Background(), senderAddr, "example", 31536000, "1.5")
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, ErrNotCommitted)
	assert.Len(t, gw.Calls, 0)
}

func TestTracker_CommitmentAgeWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "too new", elapsed: 30 * time.Second, wantErr: ErrCommitmentTooNew},
		{name: "expired", elapsed: 25 * time.Hour, wantErr: ErrCommitmentExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			tracker, clock := newTestTracker(t, gw)
			ctx := context.Background()

			expectCommit(gw, ComputeCommitment("example", ownerAddr, testSecret))
			_, _, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
			require.NoError(t, err)

			expectAges(gw, 60, 86400)
			clock.Advance(tt.elapsed)

			tx, err := tracker.Register(ctx, senderAddr, "example", 31536000, "1.5")
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, tt.wantErr)
			gw.AssertNotCalled(t, "Write", mock.Anything, MethodRegister, mock.Anything, mock.Anything)

			// The record stays committed so the reveal can be retried.
			status, err := tracker.Status(ctx, "example")
			require.NoError(t, err)
			assert.Equal(t, interfaces.PhaseCommitted, status.Phase)
		})
	}
}

func TestTracker_ConfirmCommitment(t *testing.T) {
	gw := new(MockGateway)
	tracker, clock := newTestTracker(t, gw)
	ctx := context.Background()

	_, err := tracker.ConfirmCommitment(ctx, "example", clock.now)
	assert.ErrorIs(t, err, ErrNotCommitted)

	expectCommit(gw, ComputeCommitment("example", ownerAddr, testSecret))
	_, _, err = tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	require.NoError(t, err)

	// Mined later than submitted: the age is measured from the block time.
	mined := clock.now.Add(5 * time.Minute)
	record, err := tracker.ConfirmCommitment(ctx, "example", mined)
	require.NoError(t, err)
	assert.Equal(t, mined, record.SubmittedAt)

	expectAges(gw, 60, 86400)
	clock.Advance(5*time.Minute + 30*time.Second)

	_, err = tracker.Register(ctx, senderAddr, "example", 31536000, "1.5")
	assert.ErrorIs(t, err, ErrCommitmentTooNew)
}

func TestTracker_LocalVerification(t *testing.T) {
	gw := new(MockGateway)
	tracker, _ := newTestTracker(t, gw, WithLocalVerification())
	ctx := context.Background()

	gw.On("Read", mock.Anything, MethodMakeCommitment, mock.Anything, mock.Anything).
		Return(interfaces.ResultMap{"0": [32]byte{0x01}}, nil)

	tx, record, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	assert.Nil(t, tx)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrCommitmentMismatch)
	gw.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	status, err := tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseUncommitted, status.Phase)
}

func TestTracker_CommitCallError(t *testing.T) {
	gw := new(MockGateway)
	tracker, _ := newTestTracker(t, gw)
	ctx := context.Background()

	commitment := ComputeCommitment("example", ownerAddr, testSecret)
	gw.On("Read", mock.Anything, MethodMakeCommitment, mock.Anything, mock.Anything).
		Return(interfaces.ResultMap{"0": [32]byte(commitment)}, nil)
	gw.On("Write", mock.Anything, MethodCommit, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	_, _, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)

	status, err := tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseUncommitted, status.Phase)
}

func TestTracker_Forget(t *testing.T) {
	gw := new(MockGateway)
	tracker, _ := newTestTracker(t, gw)
	ctx := context.Background()

	expectCommit(gw, ComputeCommitment("example", ownerAddr, testSecret))
	_, _, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	require.NoError(t, err)

	require.NoError(t, tracker.Forget(ctx, "example"))

	status, err := tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseUncommitted, status.Phase)
}

func TestTracker_Renew(t *testing.T) {
	gw := new(MockGateway)
	tracker, _ := newTestTracker(t, gw)

	gw.On("Write", mock.Anything, MethodRenew, []interface{}{"example", big.NewInt(86400)}, writeOpts(senderAddr, oneAndAHalfEth)).
		Return(&interfaces.TransactionDescriptor{Method: MethodRenew}, nil)

	tx, err := tracker.Renew(context.Background(), senderAddr, "example", 86400, "1.5")
	require.NoError(t, err)
	assert.Equal(t, MethodRenew, tx.Method)

	// Renewals leave untracked names untracked.
	status, err := tracker.Status(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseUncommitted, status.Phase)
}

func TestTracker_CommitAfterRegister(t *testing.T) {
	gw := new(MockGateway)
	tracker, clock := newTestTracker(t, gw)
	ctx := context.Background()

	expectCommit(gw, ComputeCommitment("example", ownerAddr, testSecret))
	_, _, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	require.NoError(t, err)

	expectAges(gw, 60, 86400)
	clock.Advance(2 * time.Minute)
	gw.On("Write", mock.Anything, MethodRegister, mock.Anything, mock.Anything).
		Return(&interfaces.TransactionDescriptor{Method: MethodRegister}, nil)

	_, err = tracker.Register(ctx, senderAddr, "example", 31536000, "1.5")
	require.NoError(t, err)
	registeredAt := clock.now

	clock.Advance(time.Hour)
	gw.Calls = nil

	tx, record, err := tracker.Commit(ctx, senderAddr, "example", ownerAddr, testSecret)
	assert.Nil(t, tx)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Len(t, gw.Calls, 0)

	status, err := tracker.Status(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PhaseRegistered, status.Phase)
	assert.Equal(t, registeredAt, status.RegisteredAt)
}
