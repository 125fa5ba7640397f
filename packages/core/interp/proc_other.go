//go:build !unix

package interp

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
