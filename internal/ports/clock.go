package ports

// Clock supplies coarse wall-clock timestamps for advisory account fields.
// Never use it for consensus-critical logic.
type Clock interface {
	// Now returns the current unix time in seconds.
	Now() int64
}
