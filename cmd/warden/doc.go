// Package main hosts the warden CLI entrypoint and command graph.
//
// The Cobra command tree maps start, stop, restart and run onto the lifecycle
// runner, and adds read-only status and history views plus configuration
// scaffolding. Configuration and the logger are resolved lazily so commands
// such as config init work before a config file exists.
//
// Exit status is 0 on success, 2 for usage errors and unknown actions, and 1
// for every other failure.
package main
