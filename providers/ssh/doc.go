// Package ssh provides the native shipit.Environment for remote hosts, built on
// golang.org/x/crypto/ssh.
//
// Besides the transport itself (one client, one session per command, SFTP uploads and
// keep-alives) the package owns the per-run SSH material a deployment needs:
//   - WriteMaterial decodes the deploy key and renders a per-host client config
//   - ScanHostKey and AppendKnownHost seed a dedicated known_hosts file
//   - GenerateKeyPair and PublicKeyFor back the keygen command
//
// The generated config is the single source of truth for both transports: the
// openssh provider hands it to the system binaries, and this provider reads it back
// with NewFromSSHConfig.
//
// Usage:
//
//	cfg, err := ssh.NewFromSSHConfig(ssh.HostAlias, material.ConfigPath)
//	env, err := ssh.New(ssh.WithConfig(cfg))
package ssh
