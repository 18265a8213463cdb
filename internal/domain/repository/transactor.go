package repository

import "context"

// Transactor - единица работы: fn выполняется в одной транзакции,
// commit при успехе, rollback при ошибке или панике
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
