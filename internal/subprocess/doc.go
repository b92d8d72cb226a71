// Package subprocess provides the spawned engine channel.
//
// This package implements the Channel interface by starting the r2 engine as
// a child process in pipe mode (-q0) and exchanging frames over its stdin and
// stdout. It handles engine discovery, startup, stderr capture, and shutdown.
package subprocess
