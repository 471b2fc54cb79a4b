package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "studiobook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode = 112

	// Error label the server attaches to errors that abort a transaction
	// which is safe to retry as a whole.
	transientTransactionLabel = "TransientTransactionError"
)

// ErrWriteConflict reports a transaction aborted because another transaction
// wrote the same document first, after the driver exhausted its retries.
var ErrWriteConflict = errors.New("transaction write conflict")

// TransactionFunc runs inside a transaction. Repositories must use the ctx they
// are handed so their operations join the session.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		if IsWriteConflict(err) {
			return fmt.Errorf("%w: %v", ErrWriteConflict, err)
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// IsWriteConflict reports whether err is a transient transaction conflict.
func IsWriteConflict(err error) bool {
	if errors.Is(err, ErrWriteConflict) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(transientTransactionLabel) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}
