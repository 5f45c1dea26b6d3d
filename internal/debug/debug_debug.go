//go:build debug

package debug

import "log"

// Printf traces sink activity when the module is built with -tags debug.
func Printf(msg string, args ...any) {
	log.Printf("jsonwritestream: "+msg, args...)
}

const On = true
