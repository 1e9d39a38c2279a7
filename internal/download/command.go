package download

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// run executes a command, using the custom runner if set.
func (a *Acquirer) run(ctx context.Context, name string, args ...string) error {
	if a.commandRunner != nil {
		return a.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 500 {
			detail = detail[len(detail)-500:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return nil
}
