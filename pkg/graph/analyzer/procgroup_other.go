//go:build !unix

package analyzer

import "os/exec"

// configureProcessGroup keeps the default behavior of killing only the
// analyzer process itself.
func configureProcessGroup(cmd *exec.Cmd) {}
