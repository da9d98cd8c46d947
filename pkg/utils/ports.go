package utils

import (
	"fmt"
	"net"
)

// FreePort returns the first port from start upwards that can be listened on.
func FreePort(start int) (int, error) {
	for port := start; port < start+100 && port <= 65535; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		if err := l.Close(); err != nil {
			return 0, fmt.Errorf("could not release port %d: %w", port, err)
		}

		return port, nil
	}

	return 0, fmt.Errorf("no free port found from %d", start)
}
