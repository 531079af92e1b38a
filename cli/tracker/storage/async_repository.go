package storage

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
)

// AsyncRepository разгружает цикл согласования: записи складываются в
// буфер и сохраняются пулом воркеров, чтобы медленное хранилище не
// блокировало приём сообщений.
type AsyncRepository struct {
	repo   *Repository
	ch     chan Record
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewAsyncRepository(repo *Repository, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ar := &AsyncRepository{
		repo:   repo,
		ch:     make(chan Record, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	// Воркер дочитывает буфер до конца: закрытие не теряет записи.
	for rec := range a.ch {
		if err := a.repo.Save(rec); err != nil {
			log.WithField("err", err).Error("Ошибка сохранения записи")
		}
	}
}

func (a *AsyncRepository) Save(rec Record) error {
	if a.ctx.Err() != nil {
		return fmt.Errorf("асинхронный репозиторий был закрыт")
	}
	select {
	case a.ch <- rec:
		return nil
	case <-a.ctx.Done():
		return fmt.Errorf("асинхронный репозиторий был закрыт")
	}
}

func (a *AsyncRepository) Close() {
	a.cancel()
	close(a.ch)
	a.wg.Wait()
}
