package audio

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	appLog "wedpage/internal/log"
)

// ExecPlayer plays audio by running an external player binary (ffplay by
// default). Pause/resume are implemented with SIGSTOP/SIGCONT so the session
// keeps its position, matching the pause semantics of an in-process player.
type ExecPlayer struct {
	binary string

	mu     sync.Mutex
	source string
	loop   bool
	volume float64
	cmd    *exec.Cmd
	paused bool
}

// DefaultPlayerBinary is the player used when the config does not name one.
const DefaultPlayerBinary = "ffplay"

// NewExecFactory returns a PlayerFactory backed by the given binary.
// Construction fails if the binary cannot be found on PATH, which the
// controller degrades to "music unavailable".
func NewExecFactory(binary string) PlayerFactory {
	return func() (Player, error) {
		if binary == "" {
			binary = DefaultPlayerBinary
		}
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("audio player binary %q not found: %w", binary, err)
		}
		return &ExecPlayer{binary: path, volume: 1}, nil
	}
}

func (p *ExecPlayer) Load(source string) error {
	if source == "" {
		return fmt.Errorf("audio source is empty")
	}
	p.mu.Lock()
	p.source = source
	p.mu.Unlock()
	return nil
}

func (p *ExecPlayer) SetLoop(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

func (p *ExecPlayer) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

// Play starts the player process, or resumes it if paused. A failure to
// spawn is reported as ErrPlaybackRejected; the caller decides what that
// means (the page controller treats it as "no music").
func (p *ExecPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		if p.paused {
			if err := p.cmd.Process.Signal(syscall.SIGCONT); err != nil {
				return fmt.Errorf("%w: %v", ErrPlaybackRejected, err)
			}
			p.paused = false
		}
		return nil
	}

	if p.source == "" {
		return fmt.Errorf("%w: no source loaded", ErrPlaybackRejected)
	}

	// ffplay-compatible flags; -loop 0 means "repeat forever".
	args := []string{"-nodisp", "-loglevel", "quiet", "-autoexit",
		"-volume", strconv.Itoa(int(p.volume * 100))}
	if p.loop {
		args = append(args, "-loop", "0")
	}
	args = append(args, p.source)

	cmd := exec.Command(p.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackRejected, err)
	}
	p.cmd = cmd
	p.paused = false

	// Reap the process when it exits on its own so a later Play can
	// start a fresh one.
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			p.paused = false
		}
		p.mu.Unlock()
		if err != nil {
			appLog.Debug("audio player exited", "err", err)
		}
	}()

	return nil
}

func (p *ExecPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.paused {
		return
	}
	if err := p.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		appLog.Warn("audio pause failed", "reason", err)
		return
	}
	p.paused = true
}

// Close terminates the player process. Idempotent.
func (p *ExecPlayer) Close() {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.paused = false
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
