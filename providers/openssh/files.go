package openssh

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"sort"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/fileutil"
)

// Upload copies a local file or directory to remotePath with scp.
//
// Remote directories are created with one mkdir -p, then each local directory is sent
// with a single scp invocation, so a directory upload lands its contents in remotePath
// the same way the SFTP transport does.
func (e *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...shipit.FileOption) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	cfg := shipit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() && !cfg.Recursive {
		return fmt.Errorf("%s is a directory and recursive upload is disabled", localPath)
	}

	plan, total, err := planUpload(localPath, remotePath, info)
	if err != nil {
		return err
	}

	mkdir := shipit.NewCommand("mkdir", append([]string{"-p"}, plan.dirs...)...)
	if _, err := e.Run(ctx, mkdir); err != nil {
		return fmt.Errorf("failed to create remote directories for %q: %w", remotePath, err)
	}

	var sent int64

	for _, dest := range plan.order {
		files := plan.files[dest]

		if err := e.scp(ctx, files, dest); err != nil {
			return err
		}

		if cfg.Progress != nil {
			for _, f := range files {
				if fi, err := os.Stat(f); err == nil {
					sent += fi.Size()
				}
			}

			cfg.Progress(sent, total)
		}
	}

	if cfg.Permissions != 0 {
		chmod := shipit.Cmd("chmod").
			ArgIf(info.IsDir(), "-R").
			Args(fmt.Sprintf("%o", cfg.Permissions.Perm()), remotePath).
			Build()

		if _, err := e.Run(ctx, chmod); err != nil {
			return fmt.Errorf("failed to chmod %q: %w", remotePath, err)
		}
	}

	return nil
}

// scp sends files to dest, a remote file path or a directory path ending in "/".
func (e *Environment) scp(ctx context.Context, files []string, dest string) error {
	args := append(e.baseArgs(), "-q", "-p", "--")
	args = append(args, files...)
	args = append(args, e.cfg.Alias+":"+dest)

	cmd := &shipit.Command{Cmd: e.cfg.SCPBinary, Args: args}

	if _, err := e.local.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return &shipit.TransportError{Command: cmd, Err: fmt.Errorf("scp to %s failed: %w", dest, err)}
	}

	return nil
}

type uploadPlan struct {
	dirs  []string            // remote directories to create
	order []string            // scp destinations, in walk order
	files map[string][]string // scp destination -> local files
}

func planUpload(localPath, remotePath string, info fs.FileInfo) (*uploadPlan, int64, error) {
	plan := &uploadPlan{files: map[string][]string{}}

	if !info.IsDir() {
		plan.dirs = []string{pathpkg.Dir(remotePath)}
		plan.order = []string{remotePath}
		plan.files[remotePath] = []string{localPath}

		return plan, info.Size(), nil
	}

	var total int64

	err := filepath.WalkDir(localPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}

		target := pathpkg.Join(remotePath, filepath.ToSlash(rel))
		if err := fileutil.CheckRemotePathTraversal(remotePath, target); err != nil {
			return err
		}

		if d.IsDir() {
			plan.dirs = append(plan.dirs, target)

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		total += fi.Size()

		dest := pathpkg.Dir(target) + "/"
		if _, ok := plan.files[dest]; !ok {
			plan.order = append(plan.order, dest)
		}

		plan.files[dest] = append(plan.files[dest], p)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Strings(plan.dirs)

	return plan, total, nil
}
