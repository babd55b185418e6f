package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// MermaidCLI renders through the mermaid-cli binary (mmdc).
type MermaidCLI struct {
	bin     string
	timeout time.Duration
	log     *zap.Logger
}

// NewMermaidCLI creates an engine that shells out to bin.
func NewMermaidCLI(bin string, timeout time.Duration, log *zap.Logger) *MermaidCLI {
	if bin == "" {
		bin = "mmdc"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MermaidCLI{bin: bin, timeout: timeout, log: log}
}

func (m *MermaidCLI) Name() string { return EngineMermaidCLI }

// Probe checks that the binary exists and answers --version.
func (m *MermaidCLI) Probe(ctx context.Context) error {
	path, err := exec.LookPath(m.bin)
	if err != nil {
		return fmt.Errorf("mermaid-cli not found: %w", err)
	}
	m.bin = path

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, m.bin, "--version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("probing mermaid-cli: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (m *MermaidCLI) Render(ctx context.Context, source string) (*visual.Tree, error) {
	dir, err := os.MkdirTemp("", "diagramdive-*")
	if err != nil {
		return nil, fmt.Errorf("creating render dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing diagram source: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.bin, "-i", in, "-o", out, "-q")
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("mmdc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	m.log.Debug("mmdc finished", zap.Duration("took", time.Since(start)))

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("reading rendered svg: %w", err)
	}
	defer f.Close()
	return visual.Parse(f)
}
