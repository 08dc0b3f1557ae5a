// Package decrypt adapts the external table decryption step. The tool does not
// implement any cipher; it delegates to a configured program.
package decrypt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable is returned by None for every input.
var ErrUnavailable = errors.New("decryption unavailable")

// Decrypter turns encrypted table bytes into plaintext. key identifies the
// table inside the game's virtual file system, see Key.
type Decrypter interface {
	Decrypt(ctx context.Context, data []byte, key string) ([]byte, error)
}

// Key returns the context key of a language's string table.
func Key(language string) string {
	return "strings/" + language + ".blang"
}

// None never decrypts, so callers always fall back to the raw bytes.
type None struct{}

func (None) Decrypt(context.Context, []byte, string) ([]byte, error) {
	return nil, ErrUnavailable
}

// Command runs an external program with the key appended to its arguments,
// the encrypted bytes on stdin and the plaintext read from stdout.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// NewCommand splits a command line on whitespace. An empty line yields None.
func NewCommand(line string, timeout time.Duration) Decrypter {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return None{}
	}
	return &Command{Path: fields[0], Args: fields[1:], Timeout: timeout}
}

func (c *Command) Decrypt(ctx context.Context, data []byte, key string) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.Args...), key)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", c.Path, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", c.Path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("run %s: empty output", c.Path)
	}
	return out, nil
}
