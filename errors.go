package svchost

import "errors"

var (
	// ErrHostConsumed is returned by WaitForSignal on a host
	// that has already waited or is waiting in another goroutine.
	ErrHostConsumed = errors.New("svchost: host already consumed or waiting")

	// ErrNoSignals is returned when asked to listen on an empty signal set.
	ErrNoSignals = errors.New("svchost: no signals to listen for")

	// ErrSignalStream is reported when the signal listener
	// stops delivering while the host is waiting.
	ErrSignalStream = errors.New("svchost: signal listener closed")
)
