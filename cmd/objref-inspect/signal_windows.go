//go:build windows

package main

import "os"

// Windows has no SIGWINCH; the channel never fires.
func setupResizeSignal() (<-chan os.Signal, func()) {
	return make(chan os.Signal), func() {}
}
