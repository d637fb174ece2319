//go:build !unix

package handlers

import "os/exec"

func killProcessGroupOnCancel(cmd *exec.Cmd) {}
