package run

import (
	"sync"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// Listener получает события стадий одного прогона.
type Listener func(ev domain.StageEvent)

// Subscription — хэндл подписки, нужен для точечного Unsubscribe.
type Subscription struct {
	fn Listener
}

// Bus — single-producer/multi-consumer шина событий с контрактом
// at-most-once и без реплея: поздний подписчик видит только снапшот
// текущей стадии из реестра, исторические события не доигрываются.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // runID -> подписчики
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (b *Bus) Subscribe(runID string, fn Listener) *Subscription {
	sub := &Subscription{fn: fn}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[runID] == nil {
		b.subs[runID] = make(map[*Subscription]struct{})
	}
	b.subs[runID][sub] = struct{}{}
	return sub
}

func (b *Bus) Unsubscribe(runID string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[runID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, runID)
		}
	}
}

// Publish — синхронный fan-out всем текущим подписчикам прогона.
// Вызывается только горутиной самого прогона в момент перехода стадии.
func (b *Bus) Publish(runID string, ev domain.StageEvent) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.subs[runID]))
	for sub := range b.subs[runID] {
		listeners = append(listeners, sub.fn)
	}
	b.mu.RUnlock()

	// Колбэки зовем вне лока: подписчик может захотеть отписаться изнутри
	for _, fn := range listeners {
		fn(ev)
	}
}

// Drop снимает всех подписчиков завершенного прогона.
func (b *Bus) Drop(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, runID)
}
