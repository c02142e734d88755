// FILE: lixenwraith/layerconf/owner_unix.go

//go:build unix

package layerconf

import (
	"os"
	"syscall"
)

// fileOwner returns the uid owning info; ok is false for filesystems without one
func fileOwner(info os.FileInfo) (int, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return int(stat.Uid), true
}
