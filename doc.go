// Package jsonwritestream writes JSON documents incrementally to a sink,
// without ever holding the whole value in memory.  This makes it suitable
// for very large outputs (exports, logs, streaming APIs) assembled piece by
// piece.
//
// There are two ways of driving the output:
//
// - StatefulWriter: the caller opens and closes containers explicitly and
//   the writer keeps track of the open containers.
// - Writer: each container is written by a callback which receives a nested
//   ObjectWriter or ArrayWriter.  The container is closed when the callback
//   returns.
//
// Both write every token to the sink as soon as it is known; the sink does
// any buffering.  Both validate the shape of the document (keys only inside
// objects, matching closing tokens, a single top-level value) and reject
// values which are not JSON scalars, but they do not parse or check caller
// supplied JSON text.
//
// The package is organized into several sub-packages:
//
// - token: JSON text of scalars and delimiters
// - format: the Sink interface, Printer, Colorizer and Digest
//
// The jw utility in cmd/jw builds JSON documents from the command line.  You
// can install it with:
//
//	go install github.com/arnodel/jsonwritestream/cmd/jw
package jsonwritestream
