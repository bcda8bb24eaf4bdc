package kv

func (s *FileStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *FileStore) TouchedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.touched)
}
