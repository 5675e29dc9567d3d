package station_service

import "sync"

// History - журнал только на добавление с курсором "доставлено в UI".
// Курсор никогда не превышает длину журнала.
type History[T any] struct {
	mu      sync.Mutex
	records []T
	cursor  int
}

func NewHistory[T any]() *History[T] {
	return &History[T]{}
}

func (h *History[T]) Append(record T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
}

// SinceLast возвращает записи, добавленные после предыдущего вызова,
// и сдвигает курсор под той же блокировкой.
func (h *History[T]) SinceLast() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= len(h.records) {
		return []T{}
	}
	out := make([]T, len(h.records)-h.cursor)
	copy(out, h.records[h.cursor:])
	h.cursor = len(h.records)
	return out
}

// All возвращает копию всего журнала, курсор не меняется.
func (h *History[T]) All() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]T, len(h.records))
	copy(out, h.records)
	return out
}

func (h *History[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func (h *History[T]) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}
