//go:build darwin

package hardware

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

func getMachineID(_ afero.Fs) (string, error) {
	out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return "", fmt.Errorf("ioreg failed: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "IOPlatformUUID") {
			continue
		}
		if _, val, ok := strings.Cut(line, "="); ok {
			if val = strings.Trim(strings.TrimSpace(val), "\""); val != "" {
				return val, nil
			}
		}
	}
	return "", errors.New("IOPlatformUUID not found in ioreg output")
}
