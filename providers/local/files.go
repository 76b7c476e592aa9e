package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/fileutil"
)

// Upload copies a local file/dir to the destination path (also local).
func (e *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...shipit.FileOption) error {
	if e.isClosed() {
		return fmt.Errorf("cannot upload files: %w", shipit.ErrEnvironmentClosed)
	}

	cfg := shipit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if !cfg.Recursive {
			return errors.New("recursive directory upload is disabled by configuration")
		}

		return e.copyDir(ctx, localPath, remotePath, cfg)
	}

	mode := info.Mode()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	return e.copyFile(ctx, localPath, remotePath, mode, cfg.Progress)
}

func (e *Environment) copyDir(ctx context.Context, src, dst string, cfg shipit.FileConfig) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(dst, relPath)

		if err := fileutil.CheckPathTraversal(dst, targetPath); err != nil {
			return err
		}

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return e.copyFile(ctx, path, targetPath, mode, cfg.Progress)
	})
}

func (e *Environment) copyFile(ctx context.Context, src, dst string, mode os.FileMode, progress shipit.ProgressFunc) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	var size int64
	if info, err := sourceFile.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: sourceFile}
	if progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: progress}
	}

	if _, err := io.Copy(destFile, reader); err != nil {
		return err
	}

	if err := destFile.Sync(); err != nil {
		return err
	}

	return destFile.Close()
}
