//go:build unix

package svchost

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// readyNotifier reports when the os/signal registration is in place.
type readyNotifier struct {
	OSNotifier
	ready chan struct{}
}

func (n readyNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	err := n.OSNotifier.Notify(c, sig...)
	close(n.ready)
	return err
}

// Not parallel: signals go to the whole test process.
func TestWaitForSignalOS(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			n := readyNotifier{ready: make(chan struct{})}
			cfg := &fakeConfig{name: "svc-a", log: &callLog{}}
			h := New[fakeConfig, fakeService](cfg, new(errgroup.Group), WithNotifier(n))

			errc := make(chan error, 1)
			go func() {
				errc <- h.WaitForSignal()
			}()
			<-n.ready
			require.NoError(t, syscall.Kill(os.Getpid(), sig))

			select {
			case err := <-errc:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("WaitForSignal did not return")
			}
			require.Equal(t, []string{"started", "shutdown"}, cfg.log.get())
		})
	}
}
