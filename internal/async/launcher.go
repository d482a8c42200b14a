package async

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// RunIDEnv carries the controller's run ID into the worker process.
const RunIDEnv = "PALICANON_RUN_ID"

// Process is a started worker.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the worker exits and returns its exit code. It must be
	// called only after both streams have been read to EOF.
	Wait() (int, error)
}

// Launcher starts pipeline workers.
type Launcher interface {
	Launch(runID string) (Process, error)
}

// ExecLauncher starts the worker as a child process.
type ExecLauncher struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// SelfLauncher re-executes the running binary with args.
func SelfLauncher(args ...string) (*ExecLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &ExecLauncher{Path: exe, Args: args}, nil
}

// Launch starts the child. Runs are not cancellable once started.
func (l *ExecLauncher) Launch(runID string) (Process, error) {
	cmd := exec.Command(l.Path, l.Args...)
	cmd.Dir = l.Dir
	env := l.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(append([]string(nil), env...), RunIDEnv+"="+runID)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
