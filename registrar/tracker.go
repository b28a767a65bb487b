package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/registrar-controller/interfaces"
)

// Tracker follows each name through Uncommitted → Committed → Registered on
// behalf of one caller, persisting owner and secret between the two phases.
// The controller stays authoritative: the tracker only refuses reveals that
// are certain to fail and never claims a transaction was mined.
type Tracker struct {
	session     *Session
	store       interfaces.CommitmentStore
	log         *slog.Logger
	now         func() time.Time
	verifyLocal bool

	mu sync.Mutex
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLocalVerification makes Commit compare the controller's commitment to
// ComputeCommitment and fail with ErrCommitmentMismatch when they differ.
func WithLocalVerification() TrackerOption {
	return func(t *Tracker) {
		t.verifyLocal = true
	}
}

// WithTrackerLogger sets the tracker logger.
func WithTrackerLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.log = log
	}
}

// NewTracker creates a tracker issuing calls through session and keeping
// records in store.
func NewTracker(session *Session, store interfaces.CommitmentStore, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		session: session,
		store:   store,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Status returns the tracked record for name. Untracked names yield an
// Uncommitted record.
func (t *Tracker) Status(ctx context.Context, name string) (*interfaces.CommitmentRecord, error) {
	record, err := t.store.Load(ctx, name)
	if errors.Is(err, interfaces.ErrRecordNotFound) {
		return &interfaces.CommitmentRecord{Name: name, Phase: interfaces.PhaseUncommitted}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load record for %s: %w", name, err)
	}
	return record, nil
}

// Commit computes the commitment for (name, owner, secret), builds the commit
// transaction and records the name as Committed. Registered names are
// refused with ErrAlreadyRegistered; use Renew to extend them.
func (t *Tracker) Commit(ctx context.Context, sender common.Address, name string, owner common.Address, secret interfaces.Secret) (*interfaces.TransactionDescriptor, *interfaces.CommitmentRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.Status(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if existing.Phase == interfaces.PhaseRegistered {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	commitment, err := t.session.CalculateCommitmentHash(ctx, name, owner, secret)
	if err != nil {
		return nil, nil, err
	}

	if t.verifyLocal {
		if local := ComputeCommitment(name, owner, secret); local != commitment {
			return nil, nil, fmt.Errorf("%w: controller %s, local %s", ErrCommitmentMismatch, commitment, local)
		}
	}

	tx, err := t.session.SubmitCommitment(ctx, sender, commitment)
	if err != nil {
		return nil, nil, err
	}

	record := &interfaces.CommitmentRecord{
		Name:        name,
		Owner:       owner,
		Secret:      secret,
		Commitment:  commitment,
		Phase:       interfaces.PhaseCommitted,
		SubmittedAt: t.now().UTC(),
	}
	if err := t.store.Save(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("could not save record for %s: %w", name, err)
	}

	t.log.Info("Tracked commitment",
		slog.String("name", name),
		slog.String("commitment", commitment.String()))

	return tx, record, nil
}

// ConfirmCommitment replaces the recorded submission time of name's
// commitment, typically with the time of the block that included it.
func (t *Tracker) ConfirmCommitment(ctx context.Context, name string, at time.Time) (*interfaces.CommitmentRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.committedRecord(ctx, name)
	if err != nil {
		return nil, err
	}

	record.SubmittedAt = at.UTC()
	if err := t.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("could not save record for %s: %w", name, err)
	}
	return record, nil
}

// Register builds the reveal transaction for a committed name using the
// stored owner and secret, after checking the commitment age window.
func (t *Tracker) Register(ctx context.Context, sender common.Address, name string, duration uint64, price string) (*interfaces.TransactionDescriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.committedRecord(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := t.checkAge(ctx, record); err != nil {
		return nil, err
	}

	tx, err := t.session.RegisterName(ctx, sender, name, record.Owner, duration, record.Secret, price)
	if err != nil {
		return nil, err
	}

	record.Phase = interfaces.PhaseRegistered
	record.RegisteredAt = t.now().UTC()
	if err := t.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("could not save record for %s: %w", name, err)
	}

	t.log.Info("Tracked registration", slog.String("name", name))
	return tx, nil
}

// Renew builds a renewal transaction. Renewals never change the phase.
func (t *Tracker) Renew(ctx context.Context, sender common.Address, name string, duration uint64, price string) (*interfaces.TransactionDescriptor, error) {
	return t.session.ExtendNameRegistration(ctx, sender, name, duration, price)
}

// Forget drops the record of name.
func (t *Tracker) Forget(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.Delete(ctx, name)
}

func (t *Tracker) committedRecord(ctx context.Context, name string) (*interfaces.CommitmentRecord, error) {
	record, err := t.store.Load(ctx, name)
	if errors.Is(err, interfaces.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotCommitted, name)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load record for %s: %w", name, err)
	}
	if record.Phase != interfaces.PhaseCommitted {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCommitted, name, record.Phase)
	}
	return record, nil
}

func (t *Tracker) checkAge(ctx context.Context, record *interfaces.CommitmentRecord) error {
	minAge, err := t.session.GetMinCommitmentAge(ctx)
	if err != nil {
		return err
	}
	maxAge, err := t.session.GetMaxCommitmentAge(ctx)
	if err != nil {
		return err
	}

	age := t.now().Sub(record.SubmittedAt)
	if age < minAge {
		return fmt.Errorf("%w: %s old, need %s", ErrCommitmentTooNew, age.Truncate(time.Second), minAge)
	}
	if maxAge > 0 && age > maxAge {
		return fmt.Errorf("%w: %s old, limit %s", ErrCommitmentExpired, age.Truncate(time.Second), maxAge)
	}
	return nil
}
