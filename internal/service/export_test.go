package service

import "time"

// SetClock replaces the clock of the service.
func (s *URLService) SetClock(now func() time.Time) {
	s.now = now
}

// Purge runs a single purge pass.
func (s *URLService) Purge() (int64, error) {
	return s.purge()
}
