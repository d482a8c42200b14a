// Package bundle packages a corpus tree and its derived data into a single
// zstd-compressed tar archive.
package bundle

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// DataPrefix is the archive directory holding the derived data artifacts.
const DataPrefix = "_data"

// Artifact is a file or directory added to the archive under DataPrefix.
// A missing artifact is skipped.
type Artifact struct {
	Name string
	Path string
}

// Bundler writes archives named Name into OutDir.
type Bundler struct {
	OutDir    string
	Name      string
	Artifacts []Artifact
	Logger    *slog.Logger
}

// Bundle archives root, skipping any entry whose name or root-relative path is
// in exclude, then appends the derived artifacts under DataPrefix. It returns
// the archive path. The archive replaces any previous one atomically.
func (b *Bundler) Bundle(ctx context.Context, root string, exclude []string) (string, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "bundle root unavailable", err)
	}
	if !info.IsDir() {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, fmt.Sprintf("bundle root is not a directory: %s", root), nil)
	}

	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to create bundle directory", err)
	}
	out := filepath.Join(b.OutDir, b.Name)
	outAbs, _ := filepath.Abs(out)

	pending, err := renameio.TempFile(b.OutDir, out)
	if err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to create bundle file", err)
	}
	defer func() { _ = pending.Cleanup() }()

	zw, err := zstd.NewWriter(pending, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to create compressor", err)
	}
	a := &archive{tw: tar.NewWriter(zw), outAbs: outAbs, skip: map[string]bool{}}
	for _, e := range exclude {
		a.skip[strings.Trim(path.Clean(filepath.ToSlash(e)), "/")] = true
	}

	walkErr := a.addTree(ctx, root, "")
	for _, art := range b.Artifacts {
		if walkErr != nil {
			break
		}
		if _, err := os.Lstat(art.Path); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("bundle artifact missing, skipping", slog.String("path", art.Path))
			continue
		}
		walkErr = a.addTree(ctx, art.Path, path.Join(DataPrefix, art.Name))
	}

	if walkErr != nil {
		_ = a.tw.Close()
		_ = zw.Close()
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to archive corpus", walkErr)
	}
	if err := a.tw.Close(); err != nil {
		_ = zw.Close()
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to finish archive", err)
	}
	if err := zw.Close(); err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to finish compression", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", pcerrors.New(pcerrors.ErrCodeBundleFailed, "failed to install bundle", err)
	}

	logger.Info("bundle written", slog.String("path", out), slog.Int("files", a.files))
	return out, nil
}

type archive struct {
	tw     *tar.Writer
	outAbs string
	skip   map[string]bool
	files  int
	dirs   map[string]bool
}

// addTree writes src (a file or a directory) into the archive under prefix.
// Exclusions apply only to the corpus tree, which has an empty prefix.
func (a *archive) addTree(ctx context.Context, src, prefix string) error {
	if prefix != "" {
		if err := a.addParents(prefix); err != nil {
			return err
		}
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if prefix == "" {
			if rel == "." {
				return nil
			}
			if a.skip[rel] || a.skip[d.Name()] {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		} else {
			rel = path.Join(prefix, rel)
		}
		if abs, _ := filepath.Abs(p); abs == a.outAbs {
			return nil
		}
		if err := addEntry(a.tw, p, rel, d); err != nil {
			return err
		}
		if d.Type().IsRegular() {
			a.files++
		}
		return nil
	})
}

// addParents writes directory headers for every ancestor of name.
func (a *archive) addParents(name string) error {
	if a.dirs == nil {
		a.dirs = map[string]bool{}
	}
	dir := path.Dir(name)
	if dir == "." || a.dirs[dir] {
		return nil
	}
	if err := a.addParents(dir); err != nil {
		return err
	}
	a.dirs[dir] = true
	return a.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     dir + "/",
		Mode:     0o755,
		ModTime:  time.Now(),
	})
}

func addEntry(tw *tar.Writer, p, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	} else if !info.IsDir() && !info.Mode().IsRegular() {
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = rel
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(tw, f)
	return err
}
