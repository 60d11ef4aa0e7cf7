package execcred

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"execauth/pkg/logging"
)

// stderrTailBytes bounds how much plugin stderr is retained for error
// messages. Plugins that log verbosely only lose the oldest output.
const stderrTailBytes = 8 << 10

// defaultTerminationGrace is the pause between SIGTERM and SIGKILL when a
// timed-out or canceled plugin is terminated.
const defaultTerminationGrace = 2 * time.Second

// Invoker runs the external credential plugin and returns its raw stdout.
// It is an interface so tests can substitute a fake without spawning real
// processes.
type Invoker interface {
	Invoke(ctx context.Context, config ExecConfig, timeout time.Duration, interactive bool) ([]byte, error)
}

// processInvoker is the real Invoker backed by os/exec.
type processInvoker struct {
	// terminationGrace is the SIGTERM-to-SIGKILL grace period.
	terminationGrace time.Duration
}

func newProcessInvoker() *processInvoker {
	return &processInvoker{terminationGrace: defaultTerminationGrace}
}

// buildCommand constructs the exec.Cmd for the plugin per the execution
// contract: args in order, inherited environment plus KUBERNETES_EXEC_INFO
// plus the configured entries. It fails with ConfigurationError before any
// process is started when an environment entry is missing its name or value.
func buildCommand(config ExecConfig, interactive bool) (*exec.Cmd, error) {
	info := ExecCredential{
		TypeMeta: metav1.TypeMeta{
			APIVersion: config.APIVersion,
			Kind:       kindExecCredentials,
		},
		Spec: ExecCredentialSpec{Interactive: interactive},
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", execInfoEnv, err)
	}

	env := append(os.Environ(), execInfoEnv+"="+string(payload))
	for i, entry := range config.Env {
		if entry.Name == "" {
			return nil, &ConfigurationError{
				Entry:   fmt.Sprintf("env[%d]", i),
				Message: "environment variable entry is missing a name",
			}
		}
		if entry.Value == nil {
			return nil, &ConfigurationError{
				Entry:   entry.Name,
				Message: "environment variable entry is missing a value",
			}
		}
		env = append(env, entry.Name+"="+*entry.Value)
	}

	cmd := exec.Command(config.Command, config.Args...)
	cmd.Env = env
	// Own process group so SIGTERM/SIGKILL reach plugin children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd, nil
}

// Invoke runs the plugin and returns its stdout on clean exit. The timeout
// bounds wall-clock execution only; it does not apply to the start phase.
func (p *processInvoker) Invoke(ctx context.Context, config ExecConfig, timeout time.Duration, interactive bool) ([]byte, error) {
	cmd, err := buildCommand(config, interactive)
	if err != nil {
		return nil, err
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// The tail buffer is an io.Writer, so exec.Cmd streams stderr into it
	// as it arrives without blocking the plugin.
	stderrTail := newTailBuffer(stderrTailBytes)
	if interactive {
		// Interactive plugins talk to the user directly.
		cmd.Stdin = os.Stdin
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = stderrTail
	}

	logging.Debug("Invoker", "Starting exec plugin %s (args=%d, timeout=%s, interactive=%t)",
		config.Command, len(config.Args), timeout, interactive)

	if err := cmd.Start(); err != nil {
		return nil, &ExecutionError{Command: config.Command, Kind: ExecStartup, ExitCode: -1, Cause: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		p.terminate(cmd)
		<-done
		return nil, &ExecutionError{
			Command:  config.Command,
			Kind:     ExecTimeout,
			ExitCode: -1,
			Stderr:   stderrTail.String(),
			Cause:    fmt.Errorf("plugin did not exit within %s", timeout),
		}
	case <-ctx.Done():
		p.terminate(cmd)
		<-done
		return nil, &ExecutionError{
			Command:  config.Command,
			Kind:     ExecCanceled,
			ExitCode: -1,
			Stderr:   stderrTail.String(),
			Cause:    ctx.Err(),
		}
	}

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ExecutionError{
			Command:  config.Command,
			Kind:     ExecExit,
			ExitCode: exitCode,
			Stderr:   stderrTail.String(),
			Cause:    waitErr,
		}
	}

	logging.Debug("Invoker", "Exec plugin %s exited cleanly (%d bytes of output)", config.Command, stdout.Len())
	return stdout.Bytes(), nil
}

// terminate sends SIGTERM to the plugin's process group, waits for the grace
// period, then SIGKILLs. Kill failures are best-effort: the invocation stays
// classified as timeout/cancel and the failure is only logged.
func (p *processInvoker) terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		logging.Warn("Invoker", "SIGTERM to plugin process group %d failed: %v", pid, err)
	}
	time.Sleep(p.terminationGrace)
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		logging.Warn("Invoker", "SIGKILL to plugin process group %d failed: %v", pid, err)
	}
}

// tailBuffer is an io.Writer that retains only the last size bytes written.
type tailBuffer struct {
	mu   sync.Mutex
	b    []byte
	size int
}

func newTailBuffer(size int) *tailBuffer {
	return &tailBuffer{b: make([]byte, 0, size), size: size}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(p) >= t.size {
		t.b = append(t.b[:0], p[len(p)-t.size:]...)
		return len(p), nil
	}
	if len(t.b)+len(p) > t.size {
		drop := len(t.b) + len(p) - t.size
		t.b = t.b[drop:]
	}
	t.b = append(t.b, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.b)
}
