// Package pip registers a bundle's third-party dependencies with an
// external package-management tool.
//
// The contract is best effort: the invocation is
// `<tool> add --target <bundle> <name...>`, a non-zero exit is captured and
// reported to the caller, and the already-written bundle stays valid either
// way. Nothing here ever deletes or rewrites the artifact.
package pip

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"pybale/pkg/errors"
)

// DefaultTool is the package manager invoked when none is configured.
const DefaultTool = "uv"

// Register invokes the package manager to record the given third-party
// module names against the bundle at outputPath. A nil return means the
// tool accepted the registration; any failure comes back as a TOOL_FAILED
// error carrying the tool's combined output.
//
// Registering an empty name list is a no-op.
func Register(ctx context.Context, tool, outputPath string, modules []string) error {
	if len(modules) == 0 {
		return nil
	}
	if tool == "" {
		tool = DefaultTool
	}
	for _, m := range modules {
		if err := errors.ValidateModuleName(m); err != nil {
			return err
		}
	}

	args := append([]string{"add", "--target", outputPath}, modules...)
	cmd := exec.CommandContext(ctx, tool, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(output.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.Wrap(errors.ErrCodeToolFailed, err, "%s add failed: %s", tool, msg)
	}
	return nil
}
