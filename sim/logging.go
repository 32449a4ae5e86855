package sim

import (
	"fmt"
	"io"
)

// logWriter is the destination for status output.
var logWriter io.Writer

// SetLogWriter sets the status output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted status message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}
