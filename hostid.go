// Package hostid derives the 32-bit Unix host identifier of the current machine
// and renders it as lowercase hex, the way gethostid(3) does.
//
// The identifier comes from the first source that is available:
//
//  1. the binary identifier file (/etc/hostid);
//  2. the address the hosts table (/etc/hosts) lists for the configured hostname;
//  3. the IPv4 address of the loopback interface.
//
// Nothing is cached: every call re-reads all sources.
package hostid

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Paths lists the files consulted while resolving the identifier.
type Paths struct {
	HostIDFile     string
	HostsFile      string
	HostnameFile   string
	KernelHostname string
}

// DefaultPaths are the locations used on a Linux host.
var DefaultPaths = Paths{
	HostIDFile:     "/etc/hostid",
	HostsFile:      "/etc/hosts",
	HostnameFile:   "/etc/hostname",
	KernelHostname: "/proc/sys/kernel/hostname",
}

// DefaultLoopback is the name of the loopback interface on Linux.
const DefaultLoopback = "lo"

// Source identifies which step of the fallback chain produced an identifier.
type Source int

const (
	SourceFile Source = iota + 1
	SourceHosts
	SourceLoopback
)

func (s Source) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceHosts:
		return "hosts"
	case SourceLoopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// Result is a resolved identifier together with where it came from.
type Result struct {
	Hex      string
	Source   Source
	Address  string // IPv4 text used on the hosts and loopback paths
	Hostname string // trimmed hostname; empty on the file path
}

// Resolver walks the fallback chain. The zero value is not usable; call New.
type Resolver struct {
	fs         afero.Fs
	interfaces InterfaceLister
	paths      Paths
	loopback   string
	padded     bool
	log        zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFs sets the filesystem every path is read from.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithRoot resolves against a system tree mounted at dir instead of "/".
// It applies to whichever filesystem is configured when the option runs.
func WithRoot(dir string) Option {
	return func(r *Resolver) {
		if dir == "" || dir == "/" {
			return
		}
		r.fs = afero.NewBasePathFs(r.fs, dir)
	}
}

// WithInterfaces sets the collaborator used to enumerate network interfaces.
func WithInterfaces(l InterfaceLister) Option {
	return func(r *Resolver) {
		r.interfaces = l
	}
}

// WithPaths replaces DefaultPaths.
func WithPaths(p Paths) Option {
	return func(r *Resolver) {
		r.paths = p
	}
}

// WithLoopback sets the name of the interface used as the last resort.
func WithLoopback(name string) Option {
	return func(r *Resolver) {
		r.loopback = name
	}
}

// WithPadded zero-pads every byte on the identifier-file path as well, so the
// result is always 8 characters. gethostid-compatible output leaves it off.
func WithPadded(padded bool) Option {
	return func(r *Resolver) {
		r.padded = padded
	}
}

// WithLogger receives a debug event for each fallback step.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New returns a Resolver reading the real filesystem and network interfaces.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		fs:         afero.NewOsFs(),
		interfaces: SystemInterfaces{},
		paths:      DefaultPaths,
		loopback:   DefaultLoopback,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logger returns the logger set with WithLogger.
func (r *Resolver) Logger() zerolog.Logger {
	return r.log
}

// Get returns the host identifier of the current machine using the defaults.
func Get() (string, error) {
	return New().Resolve()
}

// Resolve returns the host identifier as lowercase hex.
func (r *Resolver) Resolve() (string, error) {
	res, err := r.Lookup()
	if err != nil {
		return "", err
	}
	return res.Hex, nil
}

// Lookup runs the fallback chain and reports which source produced the value.
// Exactly one derivation path runs per call.
func (r *Resolver) Lookup() (*Result, error) {
	raw, err := r.readIdentifierFile()
	if err == nil {
		hex, err := EncodeFileBytes(raw, r.padded)
		if err != nil {
			return nil, err
		}
		return &Result{Hex: hex, Source: SourceFile}, nil
	}
	if KindOf(err) != KindMissingIdentifierFile {
		return nil, err
	}
	r.log.Debug().Err(err).Msg("identifier file unavailable, deriving from network address")

	name, err := r.Hostname()
	if err != nil {
		return nil, err
	}
	hostname := strings.TrimSpace(name)

	res := &Result{Hostname: hostname, Source: SourceHosts}
	addr, ok := r.lookupHosts(hostname)
	if !ok {
		r.log.Debug().Str("hostname", hostname).Msg("hostname not in hosts table, using loopback address")
		addr, err = r.loopbackAddress()
		if err != nil {
			return nil, err
		}
		res.Source = SourceLoopback
	}
	res.Address = addr

	res.Hex, err = EncodeAddress(addr)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Stringer("source", res.Source).Str("address", addr).Str("host_id", res.Hex).Msg("host identifier derived")
	return res, nil
}

// readIdentifierFile returns the first 4 bytes of the identifier file.
// A file that cannot be opened is reported as KindMissingIdentifierFile.
func (r *Resolver) readIdentifierFile() ([]byte, error) {
	path := r.paths.HostIDFile
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindMissingIdentifierFile, Path: path, Err: err}
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, &Error{Kind: KindTruncatedIdentifierFile, Path: path, Err: err}
	}
	return buf, nil
}

// lookupHosts scans the hosts table for lines containing hostname and returns
// the first tab-separated field of the last one.
func (r *Resolver) lookupHosts(hostname string) (string, bool) {
	data, err := afero.ReadFile(r.fs, r.paths.HostsFile)
	if err != nil {
		r.log.Debug().Err(err).Str("path", r.paths.HostsFile).Msg("hosts table unavailable")
		return "", false
	}

	var (
		addr  string
		found bool
	)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, hostname) {
			addr, _, _ = strings.Cut(line, "\t")
			found = true
		}
	}
	return addr, found
}

// loopbackAddress returns the first IPv4 address of the loopback interface.
func (r *Resolver) loopbackAddress() (string, error) {
	ifaces, err := r.interfaces.Interfaces()
	if err != nil {
		return "", &Error{Kind: KindNoLoopbackInterface, Err: err}
	}
	for _, iface := range ifaces {
		if iface.Name != r.loopback {
			continue
		}
		for _, ip := range iface.Addrs {
			if v4 := ip.To4(); v4 != nil {
				return v4.String(), nil
			}
		}
		return "", &Error{Kind: KindNoLoopbackInterface, Path: r.loopback, Err: errNoIPv4}
	}
	return "", &Error{Kind: KindNoLoopbackInterface, Path: r.loopback, Err: errNotFound}
}
