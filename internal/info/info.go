package info

// Package info reads the two plain-text inputs the client runs from: the
// server info file ("ip:port", one line) and the backup info file (one
// local filename per line, in backup order).

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

var ErrMalformedServerInfo = errors.New("Server info is malformed, expected a single ip:port line")

// ReadServerInfo parses the server address from path.
func ReadServerInfo(path string) (host string, port uint16, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("Failed to read server info %s: %w", path, err)
	}

	host, portPart, err := net.SplitHostPort(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", 0, fmt.Errorf("Failed to parse server info %s: %w", path, ErrMalformedServerInfo)
	}

	parsed, err := strconv.ParseUint(portPart, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("Failed to parse port %q in %s: %w", portPart, path, ErrMalformedServerInfo)
	}

	return host, uint16(parsed), nil
}

// ServerAddr is ReadServerInfo joined back into a dialable address.
func ServerAddr(path string) (string, error) {
	host, port, err := ReadServerInfo(path)
	if err != nil {
		return "", err
	}

	return net.JoinHostPort(host, strconv.Itoa(int(port))), nil
}

// ReadBackupList returns the ordered list of local filenames to back up.
// Blank lines are skipped; order is otherwise preserved.
func ReadBackupList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read backup list %s: %w", path, err)
	}

	files := make([]string, 0)

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}

	return files, nil
}
