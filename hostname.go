package hostid

import (
	"errors"

	"github.com/spf13/afero"
)

// Hostname returns the raw contents of the configured hostname source:
// the hostname file if it can be read, the kernel hostname interface otherwise.
// Surrounding whitespace is left for the caller to trim.
func (r *Resolver) Hostname() (string, error) {
	var errs []error
	for _, path := range []string{r.paths.HostnameFile, r.paths.KernelHostname} {
		data, err := afero.ReadFile(r.fs, path)
		if err == nil {
			return string(data), nil
		}
		errs = append(errs, err)
	}
	return "", &Error{
		Kind: KindNoHostnameSource,
		Path: r.paths.HostnameFile + " and " + r.paths.KernelHostname,
		Err:  errors.Join(errs...),
	}
}
