package cmd

// Exit codes for wodc run. A session that parses and compiles fine but
// whose session ends in runtime_crash still exits non-zero, distinct
// from a pre-execution CLI/config validation failure.
const (
	exitSuccess      = 0
	exitConfigError  = 2
	exitRuntimeCrash = 3
)
