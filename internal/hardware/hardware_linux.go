//go:build linux

package hardware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Older distributions only populate the D-Bus copy.
var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

func getMachineID(fs afero.Fs) (string, error) {
	var errs []error
	for _, path := range machineIDPaths {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("cannot read %s: %w", path, err))
			continue
		}
		val := strings.TrimSpace(string(data))
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is empty", path))
			continue
		}
		return val, nil
	}
	return "", errors.Join(errs...)
}
