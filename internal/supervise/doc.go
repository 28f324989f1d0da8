// Package supervise runs the configured program as the daemon's foreground
// body and forwards shutdown to it.
package supervise
