//go:build linux

package lir

import (
	"strings"

	"golang.org/x/sys/unix"
)

// hostMachineCheck reads uname(2)'s machine field and returns the GOARCH
// name it implies when that disagrees with want, or "" when they agree (or
// the syscall fails — a mismatch is advisory, never fatal).
func hostMachineCheck(want string) string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	machine := charsToString(uts.Machine[:])
	got := machineToGOARCH(machine)
	if got == "" || got == want {
		return ""
	}
	return got
}

func machineToGOARCH(machine string) string {
	switch {
	case machine == "x86_64":
		return "amd64"
	case strings.HasPrefix(machine, "aarch64"):
		return "arm64"
	case strings.HasPrefix(machine, "riscv64"):
		return "riscv64"
	default:
		return ""
	}
}

func charsToString(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}
