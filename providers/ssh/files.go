package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"

	"github.com/pkg/sftp"
	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/fileutil"
)

// Upload copies a local file/dir to the remote path using SFTP.
// Missing remote parent directories are created.
func (e *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...shipit.FileOption) error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return shipit.ErrEnvironmentClosed
	}

	client := e.client
	e.mu.Unlock()

	cfg := shipit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return &shipit.TransportError{Err: fmt.Errorf("failed to create sftp client: %w", err)}
	}

	defer func() { _ = sftpClient.Close() }()

	if info.IsDir() {
		if !cfg.Recursive {
			return fmt.Errorf("%s is a directory and recursive upload is disabled", localPath)
		}

		return uploadDir(ctx, sftpClient, localPath, remotePath, cfg)
	}

	if err := sftpClient.MkdirAll(pathpkg.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory for %q: %w", remotePath, err)
	}

	mode := info.Mode().Perm()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	return uploadFile(ctx, sftpClient, localPath, remotePath, mode, cfg.Progress)
}

func uploadDir(ctx context.Context, client *sftp.Client, localBase, remoteBase string, cfg shipit.FileConfig) error {
	return filepath.Walk(localBase, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(localBase, path)
		if err != nil {
			return err
		}

		remotePath := pathpkg.Join(remoteBase, filepath.ToSlash(relPath))
		if err := fileutil.CheckRemotePathTraversal(remoteBase, remotePath); err != nil {
			return err
		}

		if info.IsDir() {
			if err := client.MkdirAll(remotePath); err != nil {
				return err
			}

			if cfg.Permissions != 0 {
				_ = client.Chmod(remotePath, cfg.Permissions)
			}

			return nil
		}

		mode := info.Mode().Perm()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return uploadFile(ctx, client, path, remotePath, mode, cfg.Progress)
	})
}

func uploadFile(ctx context.Context, client *sftp.Client, localPath, remotePath string, mode os.FileMode, progress shipit.ProgressFunc) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := client.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", err)
	}

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: src}
	if progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: progress}
	}

	_, err = io.Copy(dst, reader)

	return err
}
