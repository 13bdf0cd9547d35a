// Package connectivity tracks whether the OMDb endpoint is reachable.
//
// Monitor probes a TCP address on start, on a fixed interval, and shortly
// after kernel netlink reports a network interface change. It exposes the
// current state through Online and signals offline-to-online transitions on
// the coalescing Restored channel. Static implements the same Online contract
// for tests and forced-offline runs.
package connectivity
