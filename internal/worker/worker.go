package worker

import "context"

// Worker - долгоживущий потребитель стрима
type Worker interface {
	// Start блокирует до остановки или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует о завершении
	Stop() error

	Name() string
}
