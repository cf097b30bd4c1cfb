package main

import "os"

// Windows has no user signals; edit thresholds with the admin flags and restart
func controlSignals() map[os.Signal]controlAction {
	return map[os.Signal]controlAction{}
}
