// Package gitsync keeps the corpus working tree in step with its published
// upstream repository by driving the git command line.
package gitsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// Repo is a shallow clone of one branch of a remote repository.
type Repo struct {
	Dir    string
	URL    string
	Branch string
	// Git is the git executable; empty means "git" from PATH.
	Git    string
	Logger *slog.Logger
}

// IsInitialized reports whether Dir already holds a git working tree.
func (r *Repo) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Clone performs a fresh shallow clone of Branch into Dir.
func (r *Repo) Clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.Dir), 0o755); err != nil {
		return fmt.Errorf("failed to create corpus parent: %w", err)
	}
	args := []string{"clone", "--depth", "1"}
	if r.Branch != "" {
		args = append(args, "--branch", r.Branch)
	}
	args = append(args, r.URL, r.Dir)
	if _, err := r.run(ctx, "", args...); err != nil {
		return err
	}
	r.logger().Info("corpus cloned", slog.String("url", r.URL), slog.String("branch", r.Branch))
	return nil
}

// Pull fetches the tip of Branch and moves the working tree to it. It reports
// whether the revision changed.
func (r *Repo) Pull(ctx context.Context) (bool, error) {
	before, err := r.Revision(ctx)
	if err != nil {
		return false, err
	}

	ref := r.Branch
	if ref == "" {
		ref = "HEAD"
	}
	if _, err := r.run(ctx, r.Dir, "fetch", "--depth", "1", "origin", ref); err != nil {
		return false, err
	}
	if _, err := r.run(ctx, r.Dir, "reset", "--hard", "FETCH_HEAD"); err != nil {
		return false, err
	}

	after, err := r.Revision(ctx)
	if err != nil {
		return false, err
	}
	changed := before != after
	r.logger().Info("corpus pulled",
		slog.String("from", before),
		slog.String("to", after),
		slog.Bool("changed", changed))
	return changed, nil
}

// Revision returns the commit hash of HEAD.
func (r *Repo) Revision(ctx context.Context) (string, error) {
	out, err := r.run(ctx, r.Dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RevisionTime returns the committer timestamp of HEAD.
func (r *Repo) RevisionTime(ctx context.Context) (time.Time, error) {
	out, err := r.run(ctx, r.Dir, "log", "-1", "--format=%cI")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(out))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse commit time %q: %w", strings.TrimSpace(out), err)
	}
	return t, nil
}

func (r *Repo) run(ctx context.Context, dir string, args ...string) (string, error) {
	git := r.Git
	if git == "" {
		git = "git"
	}
	cmd := exec.CommandContext(ctx, git, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg = fmt.Sprintf("git %s: %s", args[0], msg)
		}
		return "", pcerrors.New(pcerrors.ErrCodeSyncFailed, msg, err).
			WithDetail("dir", dir)
	}
	return stdout.String(), nil
}

func (r *Repo) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
