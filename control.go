package svchost

// ServiceControl is the contract a service must satisfy to be run by a Host.
// It is used as a constraint on *S so that the host can construct the
// service from its zero value:
//
//	type Worker struct{ ... }
//	func (w *Worker) Start(cfg *Config, pool svchost.Pool) { ... }
//	func (w *Worker) Shutdown() { ... }
//
//	h := svchost.New[Config, Worker](cfg, pool)
type ServiceControl[T, S any] interface {
	*S

	// Start begins the service's work on pool.
	// It is called exactly once, on the zero value of S,
	// and must return once the work has been handed off.
	// There is no error return: a service that cannot start
	// should log and exit the process itself.
	Start(cfg *T, pool Pool)

	// Shutdown stops the service.
	// The host releases the service after calling it,
	// so it is never called twice.
	Shutdown()
}
