package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruffel/shipit/fileutil"
	"golang.org/x/crypto/ssh"
)

// KeyPair is an OpenSSH private key and its authorized_keys line.
type KeyPair struct {
	PrivateKey    []byte // PEM, "OPENSSH PRIVATE KEY"
	AuthorizedKey []byte // "ssh-ed25519 AAAA... comment\n"
}

// GenerateKeyPair creates a new unencrypted ed25519 key pair.
func GenerateKeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cannot generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("cannot encode private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cannot encode public key: %w", err)
	}

	return &KeyPair{
		PrivateKey:    pem.EncodeToMemory(block),
		AuthorizedKey: authorizedLine(sshPub, comment),
	}, nil
}

// PublicKeyFor derives the authorized_keys line for an unencrypted private key.
func PublicKeyFor(privateKey []byte) ([]byte, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cannot parse private key: %w", err)
	}

	return ssh.MarshalAuthorizedKey(signer.PublicKey()), nil
}

// WriteKeyPair writes kp to path and path.pub. Existing files are never overwritten.
func WriteKeyPair(path string, kp *KeyPair) error {
	pubPath := path + ".pub"

	for _, p := range []string{path, pubPath} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("refusing to overwrite %s: %w", p, os.ErrExist)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}

	if err := fileutil.WritePrivateFile(path, kp.PrivateKey); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}

	if err := os.WriteFile(pubPath, kp.AuthorizedKey, 0o644); err != nil { //nolint:gosec // public key
		return fmt.Errorf("cannot write %s: %w", pubPath, err)
	}

	return nil
}

func authorizedLine(key ssh.PublicKey, comment string) []byte {
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key)))
	if comment != "" {
		line += " " + comment
	}

	return []byte(line + "\n")
}
