//go:build !linux

package rdbm

// pageSize falls back to a fixed constant on platforms where
// golang.org/x/sys/unix.Getpagesize is unavailable.
func pageSize() int {
	return defaultPageSize
}
