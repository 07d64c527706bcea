package calc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// Subprocess drives an external MLIP runner process over line-delimited
// JSON on stdin/stdout. The runner loads its model once at startup and then
// answers one evaluation request per line, which keeps the expensive load
// out of the per-structure path.
type Subprocess struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	stdin  io.WriteCloser
	stdout *bufio.Reader
	nextID int64
	closed bool
}

// SubprocessConfig configures the runner invocation.
type SubprocessConfig struct {
	// Command is the argv of the runner, e.g. ["mace-runner", "--model", "large"].
	Command []string
	// Env entries are appended to the inherited environment.
	Env []string
	// StartTimeout bounds the wait for the runner's ready line. Model loads
	// can take minutes; zero means the default of 5 minutes.
	StartTimeout time.Duration
}

const defaultStartTimeout = 5 * time.Minute

// wire formats for the runner protocol.
type wireRequest struct {
	ID         int64       `json:"id"`
	Symbols    []string    `json:"symbols"`
	Cell       [][]float64 `json:"cell"`
	Positions  [][]float64 `json:"positions"`
	Properties []string    `json:"properties"`
}

type wireResponse struct {
	ID     int64       `json:"id"`
	Ready  bool        `json:"ready,omitempty"`
	Energy *float64    `json:"energy,omitempty"`
	Forces [][]float64 `json:"forces,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSubprocess spawns the runner and blocks until it reports ready.
// The child inherits the current os.Stderr, so wrapping construction in a
// Quiet scope silences load-time banner noise from the runtime.
func NewSubprocess(cfg SubprocessConfig) (*Subprocess, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("calc: empty runner command")
	}
	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("calc: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("calc: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("calc: start runner %q: %w", cfg.Command[0], err)
	}
	s := &Subprocess{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}

	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := s.readResponse(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("calc: runner %q did not become ready: %w", cfg.Command[0], err)
	}
	if !resp.Ready {
		_ = s.Close()
		if resp.Error != "" {
			return nil, fmt.Errorf("calc: runner %q failed to load: %s", cfg.Command[0], resp.Error)
		}
		return nil, fmt.Errorf("calc: runner %q sent unexpected first line", cfg.Command[0])
	}
	return s, nil
}

// Calculate sends one evaluation request and waits for its response.
func (s *Subprocess) Calculate(ctx context.Context, atoms *structure.Atoms, req Request) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, errors.New("calc: calculator is closed")
	}

	s.nextID++
	wreq := wireRequest{
		ID:        s.nextID,
		Symbols:   atoms.Symbols,
		Cell:      denseToRows(atoms.Cell),
		Positions: denseToRows(atoms.Positions),
	}
	if req.Energy {
		wreq.Properties = append(wreq.Properties, "energy")
	}
	if req.Forces {
		wreq.Properties = append(wreq.Properties, "forces")
	}
	line, err := json.Marshal(wreq)
	if err != nil {
		return Result{}, fmt.Errorf("calc: encode request: %w", err)
	}
	if _, err := s.stdin.Write(append(line, '\n')); err != nil {
		return Result{}, fmt.Errorf("calc: write request: %w", err)
	}

	resp, err := s.readResponse(ctx)
	if err != nil {
		return Result{}, err
	}
	if resp.Error != "" {
		return Result{}, errors.New(resp.Error)
	}
	var out Result
	if req.Energy {
		if resp.Energy == nil {
			return Result{}, errors.New("calc: runner response missing energy")
		}
		out.Energy = *resp.Energy
		out.HasEnergy = true
	}
	if req.Forces {
		f, err := rowsToDense(resp.Forces, atoms.Count())
		if err != nil {
			return Result{}, err
		}
		out.Forces = f
	}
	return out, nil
}

// readResponse reads one JSON line, honoring ctx. A canceled read leaves
// the stream out of sync, so the process is killed and reaped rather than
// reused; a later Close is a no-op.
func (s *Subprocess) readResponse(ctx context.Context) (wireResponse, error) {
	type lineResult struct {
		line string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := s.stdout.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		s.closed = true
		_ = s.stdin.Close()
		_ = s.cmd.Process.Kill()
		go func() { _ = s.cmd.Wait() }()
		return wireResponse{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return wireResponse{}, fmt.Errorf("calc: read response: %w", res.err)
		}
		var resp wireResponse
		if err := json.Unmarshal([]byte(res.line), &resp); err != nil {
			return wireResponse{}, fmt.Errorf("calc: decode response: %w", err)
		}
		return resp, nil
	}
}

// Close terminates the runner. Best effort: stdin close signals shutdown,
// then the process is reaped with a kill fallback.
func (s *Subprocess) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		_ = s.cmd.Process.Kill()
		return <-done
	}
}

func denseToRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		mat.Row(row, i, m)
		out[i] = row
	}
	return out
}

func rowsToDense(rows [][]float64, wantRows int) (*mat.Dense, error) {
	if len(rows) != wantRows {
		return nil, fmt.Errorf("calc: runner returned %d force rows, want %d", len(rows), wantRows)
	}
	out := mat.NewDense(wantRows, 3, nil)
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("calc: force row %d has %d components, want 3", i, len(row))
		}
		out.SetRow(i, row)
	}
	return out, nil
}
