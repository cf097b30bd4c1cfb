//go:build !windows

package main

import (
	"os"
	"syscall"
)

func controlSignals() map[os.Signal]controlAction {
	return map[os.Signal]controlAction{
		syscall.SIGHUP:  actionReload,
		syscall.SIGUSR1: actionNextPair,
		syscall.SIGUSR2: actionPreviousPair,
	}
}
