package svchost

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the lifecycle position of a Host.
type State int32

const (
	StateStarted State = iota
	StateWaiting
	StateStopping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateWaiting:
		return "waiting"
	case StateStopping:
		return "stopping"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type hostOptions struct {
	log      zerolog.Logger
	notifier Notifier
}

type Option func(o *hostOptions)

// WithLogger sets the logger used for lifecycle messages.
// Hosts are silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *hostOptions) {
		o.log = l
	}
}

// WithNotifier replaces the os/signal based listener.
func WithNotifier(n Notifier) Option {
	return func(o *hostOptions) {
		o.notifier = n
	}
}

// Host owns a single running service
// and shuts it down when the process is asked to exit.
type Host[T, S any, P ServiceControl[T, S]] struct {
	svc      P
	log      zerolog.Logger
	notifier Notifier
	fatal    func(error)
	state    atomic.Int32
}

// New starts a service of type S with cfg on pool
// and returns the host that owns it.
// cfg and pool must stay valid for as long as the service runs.
func New[T, S any, P ServiceControl[T, S]](cfg *T, pool Pool, opts ...Option) *Host[T, S, P] {
	o := hostOptions{
		log:      zerolog.Nop(),
		notifier: OSNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host[T, S, P]{
		svc:      P(new(S)),
		log:      o.log,
		notifier: o.notifier,
	}
	h.fatal = func(err error) {
		h.log.WithLevel(zerolog.FatalLevel).Err(err).Msg("signal listener failed")
		os.Exit(1)
	}
	h.svc.Start(cfg, pool)
	return h
}

// State reports where the host is in its lifecycle.
func (h *Host[T, S, P]) State() State {
	return State(h.state.Load())
}

// WaitForSignal blocks until the process receives SIGINT or SIGTERM,
// then shuts the service down and returns nil.
// It may only complete once per host; later calls return ErrHostConsumed,
// as do calls made while another goroutine is waiting or registering.
//
// An error is returned if the signal listener cannot be registered,
// in which case the service is left running and the call may be retried.
// If the listener fails after registration, the process exits.
func (h *Host[T, S, P]) WaitForSignal() error {
	if !h.state.CompareAndSwap(int32(StateStarted), int32(StateWaiting)) {
		return ErrHostConsumed
	}

	c := make(chan os.Signal, 1)
	if err := h.notifier.Notify(c, exitSignals...); err != nil {
		h.state.Store(int32(StateStarted))
		return fmt.Errorf("svchost: listen for exit signals: %w", err)
	}

	h.log.Info().Msg("waiting for exit signal")
	sig, ok := <-c
	// a second signal during shutdown gets the default action
	h.notifier.Stop(c)
	if !ok {
		h.fatal(ErrSignalStream)
		return ErrSignalStream
	}
	h.log.Info().Stringer("signal", sig).Msg("received exit signal")

	h.state.Store(int32(StateStopping))
	svc := h.svc
	var zero P
	h.svc = zero
	svc.Shutdown()
	h.state.Store(int32(StateDone))

	h.log.Info().Msg("service stopped")
	return nil
}
