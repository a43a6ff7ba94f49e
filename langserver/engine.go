package langserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/wire"
)

// engineState is
type engineState int

const (
	engineRunning engineState = iota
	engineShuttingDown
	engineStopped
)

const engineShutdownGrace = 3 * time.Second

// engine is one backend subprocess plus its JSON-RPC connection. The exit
// watcher invokes onExit exactly once, whether the process crashed or was
// shut down deliberately.
type engine struct {
	id     string
	name   string
	logger *log.Logger

	cmd    *exec.Cmd
	conn   *jsonrpc2.Conn
	stderr io.ReadCloser
	done   chan struct{}

	mu     sync.Mutex
	state  engineState
	onExit func(err error)
}

// startEngine launches the subprocess and wires its stdio into a framed
// JSON-RPC connection served by handler. stderr is returned untouched so the
// caller can scrape it.
func startEngine(name string, cfg EngineConfig, handler jsonrpc2.Handler, logger *log.Logger) (*engine, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("engine %s: no command configured", name)
	}
	cmd := exec.Command(cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("engine %s: %v", name, err)
	}

	e := &engine{
		id:     uuid.NewString(),
		name:   name,
		logger: logger,
		cmd:    cmd,
		stderr: stderr,
		done:   make(chan struct{}),
	}

	var diag func(error)
	if logger != nil {
		diag = func(err error) {
			logger.Printf("engine %s: wire: %v", name, err)
		}
	}
	stream := wire.NewStream(stdout, stdin, stdin, diag)
	e.conn = jsonrpc2.NewConn(context.Background(), stream, handler)

	go e.watchExit()
	return e, nil
}

func (e *engine) watchExit() {
	err := e.cmd.Wait()
	close(e.done)
	e.conn.Close()

	e.mu.Lock()
	deliberate := e.state != engineRunning
	e.state = engineStopped
	onExit := e.onExit
	e.onExit = nil
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Printf("engine %s [%s] (pid %d) exited: %v", e.name, e.id, e.cmd.Process.Pid, err)
	}
	if onExit != nil && !deliberate {
		if err == nil {
			err = fmt.Errorf("engine %s exited", e.name)
		}
		onExit(err)
	}
}

// setOnExit registers the crash callback. It only fires for exits that were
// not requested through shutdown.
func (e *engine) setOnExit(fn func(err error)) {
	e.mu.Lock()
	e.onExit = fn
	e.mu.Unlock()
}

func (e *engine) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == engineRunning
}

// shutdown asks the engine to stop via the protocol and escalates to a kill
// when the process outlives the grace period.
func (e *engine) shutdown() {
	e.mu.Lock()
	if e.state != engineRunning {
		e.mu.Unlock()
		return
	}
	e.state = engineShuttingDown
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), engineShutdownGrace)
	defer cancel()
	var discard interface{}
	_ = e.conn.Call(ctx, "shutdown", nil, &discard)
	_ = e.conn.Notify(ctx, "exit", nil)

	select {
	case <-e.done:
	case <-time.After(engineShutdownGrace):
		if e.logger != nil {
			e.logger.Printf("engine %s [%s]: graceful shutdown timed out, killing pid %d", e.name, e.id, e.cmd.Process.Pid)
		}
		_ = e.cmd.Process.Kill()
		<-e.done
	}
}
