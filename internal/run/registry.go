package run

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// Registry — реестр прогонов с ограниченным временем жизни записей.
// Завершенные прогоны вычищаются джанитором после retention-окна:
// безграничная мапа run-id -> Run на весь lifetime процесса — известная
// утечка, от которой мы уходим явными Put/Get/Evict.
type Registry struct {
	mu        sync.RWMutex
	runs      map[string]*entry
	retention time.Duration
}

type entry struct {
	run       *domain.Run
	expiresAt time.Time
}

func NewRegistry(retention time.Duration) *Registry {
	return &Registry{
		runs:      make(map[string]*entry),
		retention: retention,
	}
}

// StartJanitor запускает фоновую чистку просроченных записей.
func (r *Registry) StartJanitor(ctx context.Context) {
	interval := r.retention / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, e := range r.runs {
				if now.After(e.expiresAt) {
					delete(r.runs, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

func (r *Registry) Put(run *domain.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = &entry{
		run:       run,
		expiresAt: time.Now().Add(r.retention),
	}
}

// Get возвращает снапшот записи (копию), чтобы читатели из транспортного
// слоя не гонялись с горутиной прогона.
func (r *Registry) Get(id string) (*domain.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.runs[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	snapshot := *e.run
	return &snapshot, true
}

// SetStage фиксирует текущую стадию прогона.
func (r *Registry) SetStage(id string, ev domain.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.runs[id]; ok {
		e.run.CurrentStage = &ev
	}
}

// SetResult записывает терминальное событие и продлевает TTL на полное
// retention-окно от момента завершения.
func (r *Registry) SetResult(id string, ev domain.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.runs[id]; ok {
		e.run.CurrentStage = &ev
		e.run.Result = &ev
		e.expiresAt = time.Now().Add(r.retention)
	}
}

// Evict удаляет запись немедленно (для тестов и админских операций).
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
}

// Len — текущий размер реестра (метрики).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
