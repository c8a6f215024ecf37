// Package svchost runs a single long lived service
// until the process is told to stop.
//
// A service is any type whose pointer can Start from a config and a worker pool
// and later Shutdown:
//
//	c := svchost.NewConfig(svchost.WithEnv(), svchost.WithFlags(flag.CommandLine))
//	flag.Parse()
//
//	pool, _ := svchost.NewPool(context.Background(), c.Workers)
//	h := svchost.New[MyConfig, MyService](&myConfig, pool, svchost.WithLogger(c.Logger()))
//	if err := h.WaitForSignal(); err != nil {
//		log.Fatal(err)
//	}
//
// WaitForSignal blocks on SIGINT or SIGTERM and calls Shutdown exactly once.
// The server subpackage provides an HTTP and gRPC service ready to be hosted.
package svchost
