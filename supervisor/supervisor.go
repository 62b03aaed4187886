/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package supervisor is the runtime's state machine (spec §4.5): it owns the
// listening socket, the accept loop, and the transitions between Running,
// Draining, Restarting and Terminating driven by signalrouter Events.
package supervisor

import (
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/darkphnx/uninterruptible/allowlist"
	"github.com/darkphnx/uninterruptible/dispatch"
	"github.com/darkphnx/uninterruptible/internal/atomicx"
	"github.com/darkphnx/uninterruptible/internal/logx"
	"github.com/darkphnx/uninterruptible/internal/xerrors"
	"github.com/darkphnx/uninterruptible/listener"
	"github.com/darkphnx/uninterruptible/pidfile"
	"github.com/darkphnx/uninterruptible/registry"
	"github.com/darkphnx/uninterruptible/signalrouter"
)

// State is the supervisor's lifecycle state (spec §4.5).
type State uint8

const (
	Running State = iota
	Draining
	Restarting
	Terminating
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Restarting:
		return "restarting"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Environment variable names used to hand an inherited listener down to a
// successor process (spec §4.5.2, §6).
const (
	EnvInheritedFD   = "SERVER_INHERITED_FD"
	EnvInheritedKind = "SERVER_INHERITED_KIND"
	EnvGeneration    = "SERVER_GENERATION"
)

// handoverWait bounds how long the predecessor waits for the PID file to
// change before concluding the successor failed to start (spec §4.5.2).
const handoverWait = 5 * time.Second

// Config collects everything the supervisor needs to bind, dispatch and
// hand over a listening socket (spec §3, §6).
type Config struct {
	Bind         listener.Spec
	PIDPath      string
	DrainTimeout time.Duration // 0 means wait indefinitely.
	StartCommand []string      // argv used to exec a successor on restart.
	AllowedNets  []string
	Handler      dispatch.Handler
	Log          logx.FuncLog
}

// Supervisor owns the listening socket and the connections accepted from it.
type Supervisor struct {
	cfg Config

	state atomicx.Value[State]
	gen   atomicx.Value[uint64]

	ln       listener.Listener
	reg      *registry.Registry
	router   *signalrouter.Router
	pid      *pidfile.File
	dispatch *dispatch.Dispatcher

	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a Supervisor bound per cfg.Bind. If the process was exec'd
// by a predecessor (EnvInheritedFD set), it inherits the existing socket
// instead of binding a new one.
func New(cfg Config) (*Supervisor, error) {
	allowed, err := allowlist.New(cfg.AllowedNets)
	if err != nil {
		return nil, err
	}

	ln, err := bindOrInherit(cfg.Bind)
	if err != nil {
		return nil, err
	}

	reg := registry.New()

	s := &Supervisor{
		cfg:  cfg,
		ln:   ln,
		reg:  reg,
		pid:  pidfile.New(cfg.PIDPath),
		done: make(chan struct{}),
	}
	s.state = atomicx.NewWithDefault(Running)
	s.gen = atomicx.NewWithDefault(uint64(0))
	s.dispatch = dispatch.New(cfg.Handler, reg, allowed, cfg.Log)

	if v, ok := os.LookupEnv(EnvGeneration); ok {
		if gen, err := strconv.ParseUint(v, 10, 64); err == nil {
			s.gen.Store(gen + 1)
		} else {
			s.gen.Store(1)
		}
	}

	return s, nil
}

func bindOrInherit(spec listener.Spec) (listener.Listener, error) {
	fdStr, hasFD := os.LookupEnv(EnvInheritedFD)
	if !hasFD {
		return listener.New(spec)
	}

	fd, err := strconv.ParseUint(fdStr, 10, 64)
	if err != nil {
		return nil, xerrors.InheritFailed.Error(err)
	}

	if kind, ok := os.LookupEnv(EnvInheritedKind); ok {
		spec.Kind = listener.Kind(kind)
	}

	return listener.Inherit(uintptr(fd), spec)
}

// State reports the supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	return s.state.Load()
}

// Generation reports how many successful restart handovers preceded this
// process, 0 for the process that bound the socket fresh.
func (s *Supervisor) Generation() uint64 {
	return s.gen.Load()
}

// Addr returns the address the supervisor is bound to.
func (s *Supervisor) Addr() net.Addr {
	return s.ln.Addr()
}

// Run binds the signal router, writes the PID file, and blocks accepting
// connections until a terminal signal is handled. It returns nil on a clean
// shutdown.
func (s *Supervisor) Run() error {
	if err := s.pid.Write(os.Getpid()); err != nil {
		return err
	}

	s.router = signalrouter.New()
	go s.controlLoop()

	s.acceptLoop()

	<-s.done
	return nil
}

func (s *Supervisor) controlLoop() {
	for ev := range s.router.Events() {
		switch ev {
		case signalrouter.GracefulStop:
			s.log(logx.InfoLevel, "received graceful stop signal")
			go s.gracefulStop()
		case signalrouter.ForcedStop:
			s.log(logx.WarnLevel, "received forced stop signal")
			s.forcedStop()
		case signalrouter.GracefulRestart:
			s.log(logx.InfoLevel, "received graceful restart signal")
			go s.gracefulRestart()
		}
	}
}

func (s *Supervisor) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if err == listener.ErrAcceptInterrupted {
				return
			}
			s.log(logx.WarnLevel, "transient accept error").ErrorAdd(err).Log()
			continue
		}
		s.dispatch.Dispatch(conn)
	}
}

// gracefulStop moves Running -> Draining, stops accepting new connections,
// waits for the registry to drain, then finalizes shutdown.
func (s *Supervisor) gracefulStop() {
	s.state.Store(Draining)
	_ = s.ln.Close()

	result := s.reg.WaitUntilEmpty(s.cfg.DrainTimeout)
	if result == registry.DeadlineExceeded {
		s.log(logx.WarnLevel, "drain timeout exceeded, closing remaining connections").Log()
		if err := closeAll(s.reg.Snapshot()); err != nil {
			s.log(logx.WarnLevel, "errors while force-closing remaining connections").ErrorAdd(err).Log()
		}
	}

	s.finish(Terminating)
}

// forcedStop short-circuits draining: it is triggered by a second stop
// signal (spec §4.5.3) and closes every live connection immediately.
func (s *Supervisor) forcedStop() {
	s.state.Store(Terminating)
	_ = s.ln.Close()
	if err := closeAll(s.reg.Snapshot()); err != nil {
		s.log(logx.WarnLevel, "errors while force-closing connections").ErrorAdd(err).Log()
	}
	s.finish(Terminating)
}

// closeAll closes every connection in conns, aggregating any non-nil errors
// instead of discarding all but the last.
func closeAll(conns []registry.Connection) error {
	var result *multierror.Error
	for _, c := range conns {
		if err := c.Stream.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (s *Supervisor) finish(final State) {
	s.state.Store(final)
	s.router.Stop()
	_ = s.pid.Remove()
	s.stopOnce.Do(func() { close(s.done) })
}

// gracefulRestart execs a successor with the listening socket's file
// descriptor inherited, waits for the PID file to change as the successor's
// readiness signal, and only then drains and exits this process (spec
// §4.5.2). If the successor never appears within handoverWait, the restart
// is aborted and this process keeps serving.
func (s *Supervisor) gracefulRestart() {
	s.state.Store(Restarting)

	fd, err := s.ln.UnderlyingFD()
	if err != nil {
		s.abortRestart("restart aborted: could not obtain listener fd", err)
		return
	}

	ourPID, err := s.pid.Read()
	if err != nil {
		ourPID = os.Getpid()
	}

	if err := s.spawnSuccessor(fd); err != nil {
		s.abortRestart("restart aborted: could not start successor", err)
		return
	}

	if !s.waitForSuccessor(ourPID) {
		s.abortRestart("restart aborted: successor did not take over pid file in time", nil)
		return
	}

	s.log(logx.InfoLevel, "successor took over, draining and exiting").Log()
	_ = s.ln.CloseKeepPath()

	s.reg.WaitUntilEmpty(s.cfg.DrainTimeout)

	s.state.Store(Terminating)
	s.router.Stop()
	s.stopOnce.Do(func() { close(s.done) })
}

// abortRestart reverts a failed handover to Running and repairs the PID
// file before returning control to the accept loop. The successor may have
// already overwritten the PID file with its own PID before failing or
// timing out (spec §4.5.2 step 3 has it write unconditionally once it
// starts), so the invariant that the PID file always names a live process
// owning the listener (spec §8) requires rewriting it with our own PID here.
func (s *Supervisor) abortRestart(msg string, err error) {
	entry := s.log(logx.ErrorLevel, msg)
	if err != nil {
		entry = entry.ErrorAdd(err)
	}
	entry.Log()

	if werr := s.pid.Write(os.Getpid()); werr != nil {
		s.log(logx.ErrorLevel, "failed to restore pid file after aborted restart").ErrorAdd(werr).Log()
	}

	s.state.Store(Running)
}

func (s *Supervisor) spawnSuccessor(fd uintptr) error {
	if len(s.cfg.StartCommand) == 0 {
		return xerrors.RestartHandoverFailed.Error(nil)
	}

	cmd := exec.Command(s.cfg.StartCommand[0], s.cfg.StartCommand[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	inherited := os.NewFile(fd, "inherited-listener")
	cmd.ExtraFiles = []*os.File{inherited}

	// ExtraFiles[0] lands on fd 3 in the child: 0, 1 and 2 are always
	// stdin/stdout/stderr.
	cmd.Env = append(os.Environ(),
		EnvInheritedFD+"=3",
		EnvInheritedKind+"="+string(s.ln.Kind()),
		EnvGeneration+"="+strconv.FormatUint(s.gen.Load(), 10),
	)

	startErr := cmd.Start()

	// Start dup2's inherited's fd into the child's descriptor table (or, on
	// failure, never touches it); either way the parent's copy must be closed
	// explicitly here rather than left for the finalizer, or repeated aborted
	// restarts leak one fd each.
	_ = inherited.Close()

	if startErr != nil {
		return xerrors.RestartHandoverFailed.Error(startErr)
	}

	go func() { _ = cmd.Wait() }()

	return nil
}

func (s *Supervisor) waitForSuccessor(ourPID int) bool {
	deadline := time.Now().Add(handoverWait)
	for time.Now().Before(deadline) {
		pid, err := s.pid.Read()
		if err == nil && pid != ourPID {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func (s *Supervisor) log(lvl logx.Level, msg string) *logx.Entry {
	return s.cfg.Log().Entry(lvl, msg)
}
