package keychain

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/benaskins/credkeep/internal/logbuf"
)

// stderrLines bounds how much rotation script stderr ends up in an error.
const stderrLines = 5

// runRotationCommand executes a rotation script and captures its stdout.
// The script must print the new secret value and nothing else.
func runRotationCommand(command string) (string, error) {
	stderr := logbuf.NewTail(stderrLines)
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Stderr = stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := stderr.String(); msg != "" {
				return "", fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), msg)
			}
			return "", fmt.Errorf("exit code %d", exitErr.ExitCode())
		}
		return "", err
	}
	value := strings.TrimRight(string(output), "\n")
	if value == "" {
		return "", errors.New("rotation command printed nothing")
	}
	return value, nil
}
