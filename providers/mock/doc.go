// Package mock provides a controllable implementation of shipit.Environment
// for testing purposes.
//
// It allows defining expectations for command execution and uploads, enabling
// deterministic unit tests for code that drives a transport.
//
// Usage:
//
//	m := mock.New()
//	m.OnCommand("git status").Run(mock.WriteStdout("On branch main\n")).Return(mock.Exit(0), nil)
//	// pass 'm' to your logic
package mock
