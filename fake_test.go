package svchost

import (
	"os"
	"slices"
	"sync"
)

// fakeNotifier relays only the signals it was registered for,
// the way os/signal does.
type fakeNotifier struct {
	err   error
	hold  chan struct{} // when set, Notify waits for it to close
	ready chan struct{}

	mu      sync.Mutex
	c       chan<- os.Signal
	sigs    []os.Signal
	stopped bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ready: make(chan struct{})}
}

func (n *fakeNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	if n.hold != nil {
		<-n.hold
	}
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	n.c = c
	n.sigs = sig
	n.mu.Unlock()
	close(n.ready)
	return nil
}

func (n *fakeNotifier) Stop(c chan<- os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.c == c {
		n.c = nil
	}
	n.stopped = true
}

// send delivers sig once a channel is registered
// and reports whether it was relayed.
func (n *fakeNotifier) send(sig os.Signal) bool {
	<-n.ready
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.c == nil || !slices.Contains(n.sigs, sig) {
		return false
	}
	select {
	case n.c <- sig:
		return true
	default:
		return false
	}
}

// close ends the registered stream.
func (n *fakeNotifier) close() {
	<-n.ready
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.c)
}

func (n *fakeNotifier) registered() []os.Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sigs)
}

func (n *fakeNotifier) isStopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stopped
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

type fakeConfig struct {
	name string
	log  *callLog
}

// fakeService records its lifecycle calls in the config's log.
type fakeService struct {
	cfg  *fakeConfig
	pool Pool
}

func (s *fakeService) Start(cfg *fakeConfig, pool Pool) {
	s.cfg = cfg
	s.pool = pool
	cfg.log.add("started")
}

func (s *fakeService) Shutdown() {
	s.cfg.log.add("shutdown")
}
