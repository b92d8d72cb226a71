// Package cli provides engine discovery, version validation, and command
// building for the r2 executable.
//
// # Engine Discovery
//
// The Discoverer interface locates the engine binary:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    EnginePath: "",           // Optional explicit path
//	    Logger:     slog.Default(),
//	})
//	enginePath, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.EnginePath (if provided)
//  2. r2, then radare2, in the system PATH
//  3. Common installation directories
//
// A missing engine is reported as *errors.SpawnError with the searched paths.
//
// # Command Building
//
//	args := cli.BuildArgs("/bin/ls", options) // [extra...] -q0 /bin/ls
//	env := cli.BuildEnvironment(options)
package cli
