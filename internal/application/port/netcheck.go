package port

// Reachability reports whether the remote service is currently
// reachable. The signal is advisory: individual remote calls may still
// fail, and the coordinator degrades on per-call transport errors
// regardless of what Online reports.
type Reachability interface {
	Online() bool
}
