// spinner.go renders the CLI spinner shown while uxctl waits on the cluster
// or on helm/docker work.
package ui

import (
	"fmt"
	"io"
	"time"
)

// StartSpinner prints a lightweight ASCII spinner until the returned stop
// function is called. The stop function prints "[ok]" or "[failed]"
// depending on the success flag and is safe to call more than once.
func StartSpinner(w io.Writer, message string) func(success bool) {
	frames := []rune{'|', '/', '-', '\\'}
	done := make(chan struct{})
	go func() {
		defer fmt.Fprintf(w, "\r%s    \r", message)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %c", message, frames[idx])
				idx = (idx + 1) % len(frames)
			}
		}
	}()
	return func(success bool) {
		select {
		case <-done:
			return
		default:
			close(done)
		}
		status := "[ok]"
		if !success {
			status = "[failed]"
		}
		fmt.Fprintf(w, "\r%s %s\n", message, status)
	}
}
