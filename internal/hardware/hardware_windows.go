//go:build windows

package hardware

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// psQuery runs a PowerShell command and returns the trimmed stdout.
func psQuery(command string) (string, error) {
	out, err := exec.Command(
		"powershell", "-NoProfile", "-NonInteractive", "-Command", command,
	).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func getMachineID(_ afero.Fs) (string, error) {
	val, err := psQuery("(Get-ItemProperty -Path 'HKLM:\\SOFTWARE\\Microsoft\\Cryptography').MachineGuid")
	if err != nil {
		return "", fmt.Errorf("registry query failed: %w", err)
	}
	if val == "" {
		return "", errors.New("MachineGuid is empty")
	}
	return val, nil
}
