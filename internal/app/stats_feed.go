package app

import "sync"

// StatsFeed fans out "participation recorded" signals per quiz so live
// analytics views can refresh. Signals carry no payload: subscribers fetch a
// fresh snapshot themselves, which keeps the recorder decoupled from the
// report shape. Sends never block; a slow subscriber that already has a
// pending signal simply coalesces with it.
type StatsFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan struct{}]struct{}
}

func NewStatsFeed() *StatsFeed {
	return &StatsFeed{subscribers: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe returns a signal channel for one quiz. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *StatsFeed) Subscribe(quizID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan struct{}]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.subscribers[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Notify signals every subscriber of the quiz. Pending signals coalesce.
func (f *StatsFeed) Notify(quizID string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subscribers[quizID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
