// Package local provides an implementation of the shipit.Environment interface
// for the local operating system.
//
// The deployment pipeline uses it for before/after hooks: each hook string is run
// through the system shell with a hard timeout. It is a thin wrapper around the
// standard library's "os/exec" and "os" packages.
//
// Usage:
//
//	env, _ := local.New()
//	res, _ := env.Run(ctx, &shipit.Command{Cmd: "echo", Args: []string{"hello"}})
//	_ = res
package local
