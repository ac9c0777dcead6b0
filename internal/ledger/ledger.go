package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/metrics"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"go.uber.org/zap"
)

const (
	opCreateEntry   = "create_entry"
	opUpdateEntry   = "update_entry"
	opDeleteEntry   = "delete_entry"
	opCreateAccount = "create_account"
	opUpdateAccount = "update_account"
	opDeleteAccount = "delete_account"
	opReconcile     = "reconcile"
)

// Ledger keeps account balances equal to the signed sum of their entries.
// Every mutation runs in a single store transaction together with the
// balance increments it implies; the store's isolation is the only
// concurrency control.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	metrics   metrics.Collector
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithMetrics(c metrics.Collector) Option {
	return func(l *Ledger) { l.metrics = c }
}

func WithLogger(logger *logging.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the generator of entry and account ids.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// NewLedger creates a Ledger on top of store.
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: nopPublisher{},
		metrics:   metrics.NoOpCollector{},
		logger:    logging.L().Named("ledger"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// run executes fn in one store transaction. Errors outside the domain
// taxonomy come from the store and are reported as ErrTransaction; the store
// has already rolled back by then.
func (l *Ledger) run(ctx context.Context, op string, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	start := time.Now()
	// the store commits only when fn returns nil
	err := l.store.WithinTx(ctx, fn)
	if err != nil && !models.IsDomainError(err) {
		err = fmt.Errorf("%w: %s: %w", models.ErrTransaction, op, err)
	}

	outcome := outcomeOf(err)
	l.metrics.ObserveOperation(op, outcome, time.Since(start))

	switch outcome {
	case metrics.OutcomeOK:
	case metrics.OutcomeAborted:
		l.logger.Warn("transaction aborted", zap.String("op", op), zap.Error(err))
	default:
		l.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, models.ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, models.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeAborted
	}
}

// applyDeltas increments every account with a non-zero adjustment and
// returns how many increments were made.
func applyDeltas(ctx context.Context, tx interfaces.LedgerTx, ownerID string, d Deltas) (int, error) {
	// ascending id order, zero adjustments skipped
	ids := d.NonZero()
	for _, id := range ids {
		if err := tx.IncrementBalance(ctx, ownerID, id, d[id]); err != nil {
			return 0, fmt.Errorf("adjust balance of account %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// requireAccounts fails with ErrNotFound unless every id names an account of
// the owner. Accounts are visited in ascending id order, the same order used
// for increments.
func requireAccounts(ctx context.Context, tx interfaces.LedgerTx, ownerID string, ids []string) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	for _, id := range ids {
		if _, err := tx.GetAccount(ctx, ownerID, id); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, topic, key string, event any) {
	if err := l.publisher.Publish(ctx, topic, key, event); err != nil {
		l.logger.Warn("publish event failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }
