package log

import (
	"io"
	"os"
)

// StderrHandlerWriter returns the writer used by Setup for machine-readable
// output.
func StderrHandlerWriter() io.Writer { return os.Stderr }
