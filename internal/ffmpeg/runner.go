package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Runner manages the ffmpeg process lifecycle.
type Runner struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	waitCh chan error
}

// NewRunner returns a new Runner instance.
func NewRunner() *Runner {
	return &Runner{}
}

// Start launches an encoder for w×h frames sending RTP to port and returns
// the pipe to write frames into.
func (r *Runner) Start(w, h int, opts Options, port int) (io.WriteCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.stopLocked(); err != nil {
		return nil, err
	}
	return r.startLocked(w, h, opts, port)
}

// Stop terminates any running ffmpeg process.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

// Running reports whether a process is attached.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// startLocked starts ffmpeg while holding the runner lock.
func (r *Runner) startLocked(w, h int, opts Options, port int) (io.WriteCloser, error) {
	if opts.FFmpegPath == "" {
		return nil, errors.New("FFmpegPath is required")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.BitrateKbps <= 0 {
		opts.BitrateKbps = 4000
	}

	args := BuildEncodeArgs(w, h, opts, port, EncoderX264)
	cmd, stdin, waitCh, err := startWithFallback(opts.FFmpegPath, args, func() []string {
		return BuildEncodeArgs(w, h, opts, port, EncoderOpenH264)
	})
	if err != nil {
		return nil, err
	}

	r.cmd = cmd
	r.stdin = stdin
	r.waitCh = waitCh
	return stdin, nil
}

// stopLocked stops the current ffmpeg process without acquiring the lock.
func (r *Runner) stopLocked() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	if r.stdin != nil {
		_ = r.stdin.Close()
	}
	if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	if r.waitCh != nil {
		<-r.waitCh
	}
	r.cmd = nil
	r.stdin = nil
	r.waitCh = nil
	return nil
}

// startCmd launches ffmpeg with the provided args and a stdin pipe.
func startCmd(path string, args []string) (*exec.Cmd, io.WriteCloser, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	configureCmd(cmd)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, stdin, nil
}

// startWithFallback launches ffmpeg and falls back if it exits early.
func startWithFallback(path string, args []string, fallback func() []string) (*exec.Cmd, io.WriteCloser, chan error, error) {
	cmd, stdin, err := startCmd(path, args)
	if err != nil {
		return nil, nil, nil, err
	}
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	exited, exitErr := waitForExit(waitCh, 700*time.Millisecond)
	if exited {
		cmd, stdin, err = startCmd(path, fallback())
		if err != nil {
			if exitErr != nil {
				return nil, nil, nil, fmt.Errorf("ffmpeg exited early: %w", exitErr)
			}
			return nil, nil, nil, err
		}
		waitCh = make(chan error, 1)
		go func() {
			waitCh <- cmd.Wait()
		}()
	}

	return cmd, stdin, waitCh, nil
}

// waitForExit waits for a process to exit or times out.
func waitForExit(waitCh <-chan error, timeout time.Duration) (bool, error) {
	select {
	case err := <-waitCh:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// AllocatePort reserves a local UDP port and returns it.
func AllocatePort() (int, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return 0, err
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	if err := conn.Close(); err != nil {
		return 0, err
	}
	return port, nil
}

// Available reports whether the ffmpeg binary can be found.
func Available(path string) (string, error) {
	return exec.LookPath(path)
}
