// FILE: lixenwraith/layerconf/owner_other.go

//go:build !unix

package layerconf

import "os"

// fileOwner reports no owner where uids do not exist
func fileOwner(info os.FileInfo) (int, bool) {
	return 0, false
}
