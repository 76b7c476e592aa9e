package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sshprovider "github.com/ruffel/shipit/providers/ssh"
	"github.com/spf13/cobra"
)

type keygenFlags struct {
	path     string
	generate bool
	comment  string
}

func newKeygenCmd() *cobra.Command {
	var f keygenFlags

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a private key encoded for the DO_SSH_KEY secret",
		Long: `Prints the base64 form of an SSH private key for the DO_SSH_KEY secret, and the public
key to add to the server's authorized_keys. With --generate a new ed25519 pair is created
when the key does not exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeygen(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.path, "path", "", "Path to the SSH private key (default ~/.ssh/id_ed25519)")
	cmd.Flags().BoolVar(&f.generate, "generate", false, "Generate an ed25519 key pair if the key does not exist")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Comment for a generated key, usually your email")

	return cmd
}

func runKeygen(cmd *cobra.Command, f keygenFlags) error {
	out := cmd.OutOrStdout()

	path := f.path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot locate home directory: %w", err)
		}

		path = filepath.Join(home, ".ssh", "id_ed25519")
	}

	key, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && f.generate:
		kp, err := sshprovider.GenerateKeyPair(f.comment)
		if err != nil {
			return err
		}

		if err := sshprovider.WriteKeyPair(path, kp); err != nil {
			return err
		}

		fmt.Fprintln(out, checkStyle.Render("Generated a new ed25519 key pair at "+path))

		key = kp.PrivateKey
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("ssh key not found at %s; run with --generate to create one", path)
	default:
		return fmt.Errorf("cannot read ssh key: %w", err)
	}

	fmt.Fprintln(out, stepStyle.Render("Your base64 encoded private key:"))
	fmt.Fprintln(out, sshprovider.EncodePrivateKey(key))
	fmt.Fprintln(out, infoStyle.Render("Add this as DO_SSH_KEY in your repository secrets"))

	pub, err := os.ReadFile(path + ".pub")
	if err != nil {
		pub, err = sshprovider.PublicKeyFor(key)
	}

	if err != nil {
		fmt.Fprintln(out, warnStyle.Render("Cannot derive the public key: "+err.Error()))

		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, stepStyle.Render("Your public key (add this to the server's authorized_keys):"))
	fmt.Fprintln(out, strings.TrimSpace(string(pub)))

	return nil
}
