//go:build linux

package rdbm

import "golang.org/x/sys/unix"

// pageSize returns the OS page size, used to scale the reclamation scan
// batch (larger pages imply more headroom for a wider scan per push).
func pageSize() int {
	if sz := unix.Getpagesize(); sz > 0 {
		return sz
	}
	return defaultPageSize
}
