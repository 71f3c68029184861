//go:build windows

package state

import "os"

// atomicWriteFile writes data to a file as atomically as the platform allows.
// Windows rename semantics differ from POSIX, so a temp-file-and-rename is
// done by hand.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
