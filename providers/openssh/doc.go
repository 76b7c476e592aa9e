// Package openssh provides a shipit.Environment that drives the system ssh and scp
// binaries through a local environment.
//
// Every invocation passes -F with the generated per-run client config and addresses
// the host by its alias, so the binaries pick up the identity, known_hosts file,
// keep-alive and multiplexing settings from one place. Connect starts a ControlMaster
// that later commands reuse; Close asks it to exit.
//
// ssh reserves exit status 255 for its own failures, so that status is reported as a
// *shipit.TransportError rather than a *shipit.CommandError.
package openssh
