//go:build windows

package mmfile

import (
	"os"
)

// Map reads the entire file into memory; there is no mapping to release.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}
