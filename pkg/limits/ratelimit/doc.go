// Package ratelimit implements per-client sliding-window admission control
// for the gateway.
//
// Each client identifier gets an independent window of request timestamps;
// the window is pruned on every admission check and empty windows are
// garbage-collected by the periodic maintenance tick. The limiter holds one
// rate-limit view per process: state is not shared across instances and is
// reset on restart.
package ratelimit
