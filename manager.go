package consistency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Manager is the entry point application code uses to create, look up and delete
// messages. It holds no state besides its configuration and never closes its store:
// the store lifetime belongs to whoever created it (usually the registry).
type Manager[T any, K comparable] struct {
	store MessageStore[T, K]
	cfg   ManagerConfig[T]
}

// NewManager constructs a Manager over store with defaults and optional settings.
func NewManager[T any, K comparable](store MessageStore[T, K], opts ...ManagerOption[T]) *Manager[T, K] {
	if store == nil {
		panic("consistency: nil MessageStore")
	}

	var cfg ManagerConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Manager[T, K]{store: store, cfg: cfg}
}

// Store returns the underlying store.
func (m *Manager[T, K]) Store() MessageStore[T, K] {
	return m.store
}

// Create validates msg and persists it. Validation, duplicate key and recognized store
// failures are reported in the result. Cancellation and unrecognized store errors are
// returned as errors.
func (m *Manager[T, K]) Create(ctx context.Context, msg *T) (OperationResult, error) {
	if msg == nil {
		return m.invalid(ctx, OpCreate, ErrMessageRequired, m.cfg.Describer.MessageRequired()), nil
	}
	if err := m.checkContext(ctx, OpCreate); err != nil {
		return OperationResult{}, err
	}
	for _, validate := range m.cfg.Validators {
		if err := validate(ctx, msg); err != nil {
			return m.invalid(ctx, OpCreate, err, m.cfg.Describer.InvalidMessage(err)), nil
		}
	}

	start := time.Now()
	id, err := m.store.Create(ctx, msg)
	m.cfg.Metrics.ObserveStoreDuration(OpCreate, time.Since(start))
	if err != nil {
		return m.storeOutcome(ctx, OpCreate, m.identify(ctx, msg), err)
	}

	m.cfg.Trace.MessageCreated(ctx, formatID(id))
	m.cfg.Metrics.AddSucceeded(OpCreate)

	return Success(), nil
}

// Delete removes msg. Deleting a message that no longer exists consistently reports
// NotFound.
func (m *Manager[T, K]) Delete(ctx context.Context, msg *T) (OperationResult, error) {
	if msg == nil {
		return m.invalid(ctx, OpDelete, ErrMessageRequired, m.cfg.Describer.MessageRequired()), nil
	}
	if err := m.checkContext(ctx, OpDelete); err != nil {
		return OperationResult{}, err
	}

	id, err := m.store.GetMessageID(ctx, msg)
	if err != nil {
		return m.storeOutcome(ctx, OpDelete, "", err)
	}

	start := time.Now()
	err = m.store.Delete(ctx, msg)
	m.cfg.Metrics.ObserveStoreDuration(OpDelete, time.Since(start))
	if err != nil {
		return m.storeOutcome(ctx, OpDelete, formatID(id), err)
	}

	m.cfg.Trace.MessageDeleted(ctx, formatID(id))
	m.cfg.Metrics.AddSucceeded(OpDelete)

	return Success(), nil
}

// FindByID returns the message stored under id, or nil when it does not exist.
// A zero id returns ErrIDRequired without reaching the store.
func (m *Manager[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	var zero K
	if id == zero {
		m.cfg.Trace.ValidationFailed(ctx, OpFindByID, ErrIDRequired)

		return nil, ErrIDRequired
	}
	if err := m.checkContext(ctx, OpFindByID); err != nil {
		return nil, err
	}

	start := time.Now()
	msg, err := m.store.FindByID(ctx, id)
	m.cfg.Metrics.ObserveStoreDuration(OpFindByID, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrNotFound) && ctx.Err() == nil {
			return nil, nil
		}

		return nil, m.queryError(ctx, OpFindByID, err)
	}

	return msg, nil
}

// GetMessageID returns the id carried by msg.
func (m *Manager[T, K]) GetMessageID(ctx context.Context, msg *T) (K, error) {
	var zero K
	if msg == nil {
		m.cfg.Trace.ValidationFailed(ctx, OpGetMessageID, ErrMessageRequired)

		return zero, ErrMessageRequired
	}
	if err := m.checkContext(ctx, OpGetMessageID); err != nil {
		return zero, err
	}

	id, err := m.store.GetMessageID(ctx, msg)
	if err != nil {
		return zero, m.queryError(ctx, OpGetMessageID, err)
	}

	return id, nil
}

func (m *Manager[T, K]) invalid(ctx context.Context, op string, err error, desc Error) OperationResult {
	m.cfg.Trace.ValidationFailed(ctx, op, err)
	m.cfg.Metrics.AddFailed(op, CodeValidation)

	return Failed(desc)
}

func (m *Manager[T, K]) checkContext(ctx context.Context, op string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	m.cfg.Trace.OperationCanceled(ctx, op, err)
	m.cfg.Metrics.AddErrors(op)

	return err
}

// storeOutcome maps a store error onto a failed result, or returns it when it is a
// cancellation or an unrecognized error.
func (m *Manager[T, K]) storeOutcome(ctx context.Context, op, id string, err error) (OperationResult, error) {
	if isCanceled(ctx, err) {
		m.cfg.Trace.OperationCanceled(ctx, op, err)
		m.cfg.Metrics.AddErrors(op)

		return OperationResult{}, err
	}

	switch {
	case errors.Is(err, ErrDuplicateKey):
		m.cfg.Trace.DuplicateMessage(ctx, id, err)
		m.cfg.Metrics.AddFailed(op, CodeDuplicateKey)

		return Failed(m.cfg.Describer.DuplicateKey(id)), nil
	case errors.Is(err, ErrNotFound):
		m.cfg.Trace.MessageNotFound(ctx, id)
		m.cfg.Metrics.AddFailed(op, CodeNotFound)

		return Failed(m.cfg.Describer.NotFound(id)), nil
	case errors.Is(err, ErrStoreFailure):
		m.cfg.Trace.StoreFailure(ctx, op, err)
		m.cfg.Metrics.AddFailed(op, CodeStoreFailure)

		return Failed(m.cfg.Describer.StoreFailure(err)), nil
	}

	m.cfg.Trace.UnhandledStoreError(ctx, op, err)
	m.cfg.Metrics.AddErrors(op)

	return OperationResult{}, err
}

func (m *Manager[T, K]) queryError(ctx context.Context, op string, err error) error {
	if isCanceled(ctx, err) {
		m.cfg.Trace.OperationCanceled(ctx, op, err)
	} else if errors.Is(err, ErrStoreFailure) {
		m.cfg.Trace.StoreFailure(ctx, op, err)
	} else {
		m.cfg.Trace.UnhandledStoreError(ctx, op, err)
	}
	m.cfg.Metrics.AddErrors(op)

	return err
}

// identify reads the id of msg for diagnostics; failures are ignored.
func (m *Manager[T, K]) identify(ctx context.Context, msg *T) string {
	id, err := m.store.GetMessageID(ctx, msg)
	if err != nil {
		return ""
	}

	return formatID(id)
}

func isCanceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func formatID[K comparable](id K) string {
	var zero K
	if id == zero {
		return ""
	}
	if s, ok := any(id).(string); ok {
		return s
	}
	if s, ok := any(id).(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprint(id)
}
