package validate

import (
	"fmt"
	"net"
	"strconv"
)

// NetworkAddress holds a parsed host:port pair with validation tags
type NetworkAddress struct {
	Host string `validate:"required,ip|hostname"`
	Port int    `validate:"min=0,max=65535"`
}

// String returns the address in host:port form
func (n *NetworkAddress) String() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// ParseBindAddress parses and validates a "host:port" bind address string
func ParseBindAddress(addr string) (*NetworkAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	netAddr := &NetworkAddress{
		Host: host,
		Port: port,
	}

	// Validate using struct tags
	if err := validate.Struct(netAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return netAddr, nil
}
