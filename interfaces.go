package hostid

import (
	"fmt"
	"net"
)

// Interface is a network interface and the addresses assigned to it.
type Interface struct {
	Name  string
	Addrs []net.IP
}

// InterfaceLister enumerates the local network interfaces.
type InterfaceLister interface {
	Interfaces() ([]Interface, error)
}

// InterfaceListerFunc adapts a function to InterfaceLister.
type InterfaceListerFunc func() ([]Interface, error)

func (f InterfaceListerFunc) Interfaces() ([]Interface, error) {
	return f()
}

// SystemInterfaces lists the interfaces of the running host.
type SystemInterfaces struct{}

func (SystemInterfaces) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("list addresses of %s: %w", iface.Name, err)
		}
		entry := Interface{Name: iface.Name}
		for _, a := range addrs {
			switch v := a.(type) {
			case *net.IPNet:
				entry.Addrs = append(entry.Addrs, v.IP)
			case *net.IPAddr:
				entry.Addrs = append(entry.Addrs, v.IP)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
