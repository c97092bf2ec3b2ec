package hardware

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/tusharlock10/hostid"
)

var errUnsupported = errors.New("machine ID lookup is not supported on " + runtime.GOOS)

// Report describes the identity of a host.
type Report struct {
	HostID    string `json:"host_id"`
	Source    string `json:"source"`
	Address   string `json:"address,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	UUID      string `json:"uuid"`
	MachineID string `json:"machine_id,omitempty"`
	Platform  string `json:"platform"`
}

// CollectReport resolves the host identifier with r and adds the platform
// machine ID read from fs. The host identifier is required; the machine ID is
// left empty when the platform does not provide one.
func CollectReport(r *hostid.Resolver, fs afero.Fs) (*Report, error) {
	res, err := r.Lookup()
	if err != nil {
		return nil, fmt.Errorf("resolve host ID: %w", err)
	}

	rep := &Report{
		HostID:   res.Hex,
		Source:   res.Source.String(),
		Address:  res.Address,
		Hostname: res.Hostname,
		UUID:     res.UUID().String(),
		Platform: DetectPlatform(),
	}
	mid, err := GetMachineID(fs)
	if err != nil {
		l := r.Logger()
		l.Debug().Err(err).Msg("machine ID unavailable, leaving it out of the report")
	} else {
		rep.MachineID = mid
	}
	return rep, nil
}

// GetMachineID returns the platform-specific stable machine identifier.
// fs is consulted on platforms that keep it in a file.
func GetMachineID(fs afero.Fs) (string, error) {
	id, err := getMachineID(fs)
	if err != nil {
		return "", fmt.Errorf("collect machine ID: %w", err)
	}
	return id, nil
}

// DetectPlatform returns the OS/architecture pair as an upper-case tag.
func DetectPlatform() string {
	return strings.ToUpper(runtime.GOOS) + "_" + strings.ToUpper(runtime.GOARCH)
}

// Host binds a resolver to the filesystem its report reads from.
type Host struct {
	Resolver *hostid.Resolver
	Fs       afero.Fs
}

// HostID resolves the host identifier. Every call re-reads all sources.
func (h *Host) HostID() (string, error) {
	return h.Resolver.Resolve()
}

// Report collects a fresh Report.
func (h *Host) Report() (*Report, error) {
	return CollectReport(h.Resolver, h.Fs)
}
