//go:build !linux && !darwin && !windows

package hardware

import "github.com/spf13/afero"

func getMachineID(_ afero.Fs) (string, error) {
	return "", errUnsupported
}
