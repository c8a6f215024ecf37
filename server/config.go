package server

import (
	"flag"
	"net/http"
	"strings"
	"time"

	"go.seankhliao.com/svchost"
	"google.golang.org/grpc"
)

// Config holds configs for creating the http and grpc servers
type Config struct {
	svchost.Config

	// Name identifies the service in logs and telemetry
	Name string

	// Ex: :8080
	HTTPAddr string
	// empty or equal to HTTPAddr serves grpc on the http listener
	GRPCAddr string

	TLSCertFile string
	TLSKeyFile  string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	// otlp/http collector, ex: http://otel-collector:4318/v1/traces
	// empty disables export
	TraceEndpoint string

	// allowed origin suffixes, "*" for any, empty disables CORS handling
	CORSOrigins []string

	// Routes registers additional http handlers
	Routes func(*http.ServeMux)
	// Services registers grpc services
	Services func(grpc.ServiceRegistrar)
}

// DefaultConfig returns a config with defaults
func DefaultConfig() Config {
	return Config{
		Config: *svchost.NewConfig(),

		Name:     "svchost",
		HTTPAddr: ":8080",

		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// RegisterFlags adds flags to flagset
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	svchost.WithFlags(fs)(&c.Config)
	fs.StringVar(&c.Name, "name", c.Name, "service name")
	fs.StringVar(&c.HTTPAddr, "http.addr", c.HTTPAddr, "listen addr for http")
	fs.StringVar(&c.GRPCAddr, "grpc.addr", c.GRPCAddr, "listen addr for grpc, defaults to http.addr")
	fs.StringVar(&c.TLSCertFile, "tls.crt", c.TLSCertFile, "tls cert file")
	fs.StringVar(&c.TLSKeyFile, "tls.key", c.TLSKeyFile, "tls key file")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown.timeout", c.ShutdownTimeout, "time allowed for graceful shutdown")
	fs.StringVar(&c.TraceEndpoint, "trace.endpoint", c.TraceEndpoint, "otlp/http trace collector endpoint")
	fs.Func("cors.origins", "comma separated allowed origin suffixes, * for any", func(s string) error {
		c.CORSOrigins = nil
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
		return nil
	})
}

func (c *Config) sharedListener() bool {
	return c.GRPCAddr == "" || c.GRPCAddr == c.HTTPAddr
}

func (c *Config) useTLS() bool {
	return c.TLSKeyFile != ""
}
