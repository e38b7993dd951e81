//go:build !unix

package harness

import "os/exec"

// setProcessGroup leaves the default Cancel, which kills only the direct
// child; WaitDelay still bounds Wait.
func setProcessGroup(*exec.Cmd) {}
