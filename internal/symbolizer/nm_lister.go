package symbolizer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/buildkite/shellwords"
)

const DefaultNmCommand = "nm"

// NmLister runs an nm-compatible tool as "<command...> <path>" and returns
// its standard output split into lines.
type NmLister struct {
	argv []string
}

func NewNmLister(command string) (*NmLister, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultNmCommand
	}
	argv, err := shellwords.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid nm command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid nm command %q: empty", command)
	}
	return &NmLister{argv: argv}, nil
}

func (n *NmLister) ListSymbols(path string) ([]string, error) {
	args := append(append([]string{}, n.argv[1:]...), path)
	slog.Debug("Running symbol lister", "tool", n.argv[0], "args", args)

	var stderr bytes.Buffer
	cmd := exec.Command(n.argv[0], args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with status %d: %s", n.argv[0], exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("running %s: %w", n.argv[0], err)
	}

	var lines []string
	s := bufio.NewScanner(bytes.NewReader(out))
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
