package script_engine

import (
	"context"
	"sync"
	"time"
)

// PauseGate - общий для всех сценариев флаг паузы.
// Исполнители ждут на нем между шагами.
type PauseGate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
	poll   time.Duration
}

func NewPauseGate(poll time.Duration) *PauseGate {
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}
	return &PauseGate{poll: poll}
}

// Pause включает паузу. Возвращает false, если пауза уже была.
func (g *PauseGate) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return false
	}
	g.paused = true
	g.resume = make(chan struct{})
	return true
}

// Resume снимает паузу и будит всех ожидающих.
func (g *PauseGate) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return false
	}
	g.paused = false
	close(g.resume)
	return true
}

func (g *PauseGate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait блокируется, пока включена пауза. Отмена ctx прерывает ожидание.
func (g *PauseGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		resume := g.resume
		g.mu.Unlock()

		timer := time.NewTimer(g.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-resume:
		case <-timer.C:
		}
		timer.Stop()
	}
}
