package downloads

// Progress returns the current batch progress.
func (s *Store) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Progress{Remaining: s.active + s.queued, Total: s.total}
}

// SetTotal announces a batch of n downloads about to start.
func (s *Store) SetTotal(n int) {
	s.mu.Lock()
	s.queued = max(n, 0)
	s.total = s.active + s.queued
	s.mu.Unlock()
	s.notify()
}

// ResetProgress clears the batch counters.
func (s *Store) ResetProgress() {
	s.mu.Lock()
	s.queued = 0
	s.total = s.active
	s.mu.Unlock()
	s.notify()
}

// Subscribe returns a channel signalled after each index or progress
// change, and a function that unsubscribes. Signals coalesce.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	if s.queued > 0 {
		s.queued--
	}
	s.active++
	s.total = max(s.total, s.active+s.queued)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) end() {
	s.mu.Lock()
	s.active--
	if s.active+s.queued == 0 {
		s.total = 0
	}
	s.mu.Unlock()
	s.notify()
}

// skipQueued consumes an announced slot for a track that needed no
// download.
func (s *Store) skipQueued() {
	s.mu.Lock()
	if s.queued == 0 {
		s.mu.Unlock()
		return
	}
	s.queued--
	if s.active+s.queued == 0 {
		s.total = 0
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
