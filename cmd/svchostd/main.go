// Command svchostd serves the default http and grpc endpoints
// until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"go.seankhliao.com/svchost"
	"go.seankhliao.com/svchost/server"
)

func main() {
	cfg := server.DefaultConfig()
	svchost.WithEnv()(&cfg.Config)
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg.Routes = func(m *http.ServeMux) {
		m.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(cfg.Name + "\n"))
		})
	}

	lg := cfg.Logger()
	pool, _ := svchost.NewPool(context.Background(), cfg.Workers)
	h := svchost.New[server.Config, server.Server](&cfg, pool, svchost.WithLogger(lg))
	if err := h.WaitForSignal(); err != nil {
		lg.Error().Err(err).Msg("wait for signal")
		os.Exit(1)
	}
	if err := pool.Wait(); err != nil {
		lg.Error().Err(err).Msg("serve")
		os.Exit(1)
	}
}
