//go:build unix

// If you are AI: This file maps the CnC file into memory on Unix platforms.

package cnc

import (
	"os"
	"syscall"
)

// mapFile maps size bytes of f shared and read-write.
func mapFile(f *os.File, size int) ([]byte, error) {
	return syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
}

// unmapFile releases a mapping created by mapFile.
func unmapFile(data []byte) error {
	return syscall.Munmap(data)
}
