package svchost

import (
	"os"
	"os/signal"
	"syscall"
)

// exitSignals are the signals that end a host's wait.
// SIGINT: Ctrl-c,
// SIGTERM: k8s kill,
var exitSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// Notifier registers channels for delivery of OS signals.
type Notifier interface {
	// Notify relays the given signals to c.
	Notify(c chan<- os.Signal, sig ...os.Signal) error
	// Stop ends delivery to c.
	Stop(c chan<- os.Signal)
}

// OSNotifier delivers process signals through os/signal.
type OSNotifier struct{}

func (OSNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	// os/signal relays everything when given nothing
	if len(sig) == 0 {
		return ErrNoSignals
	}
	signal.Notify(c, sig...)
	return nil
}

func (OSNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}
