// Package server is an http and grpc server that runs under svchost.
//
//	cfg := server.DefaultConfig()
//	cfg.RegisterFlags(flag.CommandLine)
//	flag.Parse()
//	cfg.Routes = func(m *http.ServeMux) { ... }
//
//	pool, _ := svchost.NewPool(context.Background(), cfg.Workers)
//	h := svchost.New[server.Config, server.Server](&cfg, pool)
//	h.WaitForSignal()
//
// Every server exposes /health, /metrics, /debug/pprof/
// and the grpc health service.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.seankhliao.com/svchost"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ErrPoolFull is reported when the worker pool
// has no room for the server's serve loops.
var ErrPoolFull = errors.New("server: worker pool full")

// Server serves http and grpc, optionally on a single listener.
// The zero value is ready to be started by svchost.
type Server struct {
	cfg *Config
	log zerolog.Logger
	tel *telemetry

	http    *http.Server
	grpc    *grpc.Server
	health  *health.Server
	httpLis net.Listener
	grpcLis net.Listener

	wg sync.WaitGroup
}

// Start listens on the configured addresses and serves on pool.
// Failures are fatal.
func (s *Server) Start(cfg *Config, pool svchost.Pool) {
	s.cfg = cfg
	s.log = cfg.Logger().With().Str("service", cfg.Name).Logger()
	if err := s.start(pool); err != nil {
		s.log.Fatal().Err(err).Msg("start server")
	}
}

func (s *Server) start(pool svchost.Pool) error {
	cfg := s.cfg

	var tlsConfig *tls.Config
	if cfg.useTLS() {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("load tls keypair: %w", err)
		}
		tlsConfig = &tls.Config{
			MinVersion:   tls.VersionTLS13,
			Certificates: []tls.Certificate{cert},
		}
	}

	tel, err := newTelemetry(context.Background(), cfg)
	if err != nil {
		return err
	}
	s.tel = tel

	// grpc
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpcMid(s.log, tel.latency)),
		grpc.StatsHandler(otelgrpc.NewServerHandler(
			otelgrpc.WithMeterProvider(tel.meters),
			otelgrpc.WithTracerProvider(tel.tracers),
			otelgrpc.WithPropagators(tel.propagators),
		)),
	}
	if tlsConfig != nil && !cfg.sharedListener() {
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}
	s.grpc = grpc.NewServer(opts...)
	s.health = health.NewServer()
	s.health.SetServingStatus(cfg.Name, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	if cfg.Services != nil {
		cfg.Services(s.grpc)
	}

	// http
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/health", healthOK)
	mux.Handle("/metrics", promhttp.HandlerFor(tel.registry, promhttp.HandlerOpts{}))
	if cfg.Routes != nil {
		cfg.Routes(mux)
	}

	var h http.Handler = httpMid(mux, s.log, tel.latency)
	if len(cfg.CORSOrigins) > 0 {
		h = cors(h, cfg.CORSOrigins)
	}
	h = otelhttp.NewHandler(h, cfg.Name,
		otelhttp.WithMeterProvider(tel.meters),
		otelhttp.WithTracerProvider(tel.tracers),
		otelhttp.WithPropagators(tel.propagators),
	)
	if cfg.sharedListener() {
		h = grpcDispatch(s.grpc, h)
		if tlsConfig == nil {
			// grpc clients speak h2 without tls
			h = h2c.NewHandler(h, &http2.Server{})
		}
	}

	s.http = &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		TLSConfig:         tlsConfig,
		ErrorLog:          stdlog.New(s.log, "", 0),
	}

	// listen before returning so failures are reported by Start
	s.httpLis, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		s.abort()
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	if !cfg.sharedListener() {
		s.grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			s.abort()
			return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
		}
	}

	if err := s.submit(pool, s.serveHTTP); err != nil {
		s.abort()
		return err
	}
	s.log.Info().Str("http-addr", s.Addr()).Bool("tls", tlsConfig != nil).Msg("started http server")
	if s.grpcLis != nil {
		if err := s.submit(pool, s.serveGRPC); err != nil {
			s.abort()
			return err
		}
		s.log.Info().Str("grpc-addr", s.GRPCAddr()).Bool("tls", tlsConfig != nil).Msg("started grpc server")
	}
	return nil
}

// submit runs f on pool without waiting for a free worker
func (s *Server) submit(pool svchost.Pool, f func() error) error {
	s.wg.Add(1)
	ok := pool.TryGo(func() error {
		defer s.wg.Done()
		return f()
	})
	if !ok {
		s.wg.Done()
		return ErrPoolFull
	}
	return nil
}

// abort releases everything a failed start acquired
func (s *Server) abort() {
	if s.http != nil {
		s.http.Close()
	}
	if s.grpc != nil {
		s.grpc.Stop()
	}
	for _, lis := range []net.Listener{s.httpLis, s.grpcLis} {
		if lis != nil {
			lis.Close()
		}
	}
	s.wg.Wait()
	if s.tel != nil {
		s.tel.shutdown(context.Background())
	}
}

func (s *Server) serveHTTP() error {
	var err error
	if s.http.TLSConfig != nil {
		err = s.http.ServeTLS(s.httpLis, "", "")
	} else {
		err = s.http.Serve(s.httpLis)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error().Err(err).Msg("serve http")
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

func (s *Server) serveGRPC() error {
	err := s.grpc.Serve(s.grpcLis)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		s.log.Error().Err(err).Msg("serve grpc")
		return fmt.Errorf("serve grpc: %w", err)
	}
	return nil
}

// Addr is the address the http server listens on.
func (s *Server) Addr() string {
	return s.httpLis.Addr().String()
}

// GRPCAddr is the address the grpc server listens on,
// the http address when they share a listener.
func (s *Server) GRPCAddr() string {
	if s.grpcLis == nil {
		return s.Addr()
	}
	return s.grpcLis.Addr().String()
}

// Shutdown stops accepting requests and waits up to ShutdownTimeout
// for in flight ones before closing connections.
func (s *Server) Shutdown() {
	s.log.Info().Msg("stopping server")
	ctx, cancel := s.shutdownContext()
	defer cancel()

	s.health.Shutdown()

	grpcStopped := make(chan struct{})
	if s.grpcLis != nil {
		go func() {
			s.grpc.GracefulStop()
			close(grpcStopped)
		}()
	}

	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("shutdown http")
		s.http.Close()
	}

	if s.grpcLis != nil {
		select {
		case <-grpcStopped:
		case <-ctx.Done():
			s.log.Error().Err(ctx.Err()).Msg("shutdown grpc")
			s.grpc.Stop()
			<-grpcStopped
		}
	} else {
		// handler transports from ServeHTTP can't be drained
		s.grpc.Stop()
	}
	s.wg.Wait()

	tctx, tcancel := s.shutdownContext()
	defer tcancel()
	if err := s.tel.shutdown(tctx); err != nil {
		s.log.Error().Err(err).Msg("flush telemetry")
	}
	s.log.Info().Msg("server stopped")
}

func (s *Server) shutdownContext() (context.Context, context.CancelFunc) {
	if s.cfg.ShutdownTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
}
