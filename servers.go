package gnats

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/zeebo/xxh3"

	"github.com/gowire/gnats/internal"
)

// ServerList tracks the servers a connection may dial: the addresses it was
// configured with plus any the server gossips through connect_urls in INFO.
// Selection is deterministic for a given key, so repeated dials for the same
// client identity land on the same server while the list is stable.
type ServerList struct {
	mu        sync.RWMutex
	addresses []string
	known     map[string]bool
	breakers  map[string]*gobreaker.CircuitBreaker[bool]

	newBreaker func(addr string) *gobreaker.CircuitBreaker[bool]
}

// NewServerList creates a list from the configured addresses.
func NewServerList(addresses ...string) *ServerList {
	s := &ServerList{
		known:      make(map[string]bool),
		breakers:   make(map[string]*gobreaker.CircuitBreaker[bool]),
		newBreaker: newDialBreaker,
	}
	for _, addr := range addresses {
		s.add(addr)
	}
	return s
}

// newDialBreaker trips an address after repeated dial failures so reconnect
// loops rotate to other servers instead of hammering a dead one.
func newDialBreaker(addr string) *gobreaker.CircuitBreaker[bool] {
	return gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        addr,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

func (s *ServerList) add(addr string) {
	if addr == "" || s.known[addr] {
		return
	}
	s.known[addr] = true
	s.addresses = append(s.addresses, addr)
	s.breakers[addr] = s.newBreaker(addr)
}

// Merge adds any new addresses gossiped by the server. Existing entries keep
// their position and breaker state.
func (s *ServerList) Merge(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		s.add(u)
	}
}

// Addresses returns a copy of the current list.
func (s *ServerList) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.addresses))
	copy(out, s.addresses)
	return out
}

func (s *ServerList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addresses)
}

// Select picks a server for the given key using Jump Hash, skipping servers
// whose dial breaker is open. It returns ErrNoServersAvailable when every
// candidate is tripped.
func (s *ServerList) Select(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.addresses)
	if n == 0 {
		return "", ErrNoServersAvailable
	}
	start := internal.JumpHash(xxh3.HashString(key), n)
	for i := 0; i < n; i++ {
		addr := s.addresses[(start+i)%n]
		if s.breakers[addr].State() != gobreaker.StateOpen {
			return addr, nil
		}
	}
	return "", ErrNoServersAvailable
}

// Dial runs fn under the address's circuit breaker, counting failures
// against it.
func (s *ServerList) Dial(addr string, fn func() error) error {
	s.mu.RLock()
	cb := s.breakers[addr]
	s.mu.RUnlock()
	if cb == nil {
		return fn()
	}
	_, err := cb.Execute(func() (bool, error) {
		return true, fn()
	})
	return err
}
