package format

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest accumulates an xxhash64 checksum and the size of the text sent to
// a sink, so a large export can be verified without reading it back.
type Digest struct {
	hash  *xxhash.Digest
	count int64
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{hash: xxhash.New()}
}

// Sum64 returns the xxhash64 of everything written so far.
func (d *Digest) Sum64() uint64 {
	return d.hash.Sum64()
}

// Count returns the number of bytes written so far.
func (d *Digest) Count() int64 {
	return d.count
}

func (d *Digest) String() string {
	return fmt.Sprintf("xxh64:%016x bytes:%d", d.Sum64(), d.count)
}

// DigestSink forwards writes to another Sink and records them in a Digest.
// Only the bytes accepted by the wrapped sink are recorded.
type DigestSink struct {
	Sink
	Digest *Digest
}

var _ Sink = &DigestSink{}

// NewDigestSink wraps sink so that its output is recorded in d.
func NewDigestSink(sink Sink, d *Digest) *DigestSink {
	return &DigestSink{Sink: sink, Digest: d}
}

func (s *DigestSink) Write(p []byte) (int, error) {
	n, err := s.Sink.Write(p)
	_, _ = s.Digest.hash.Write(p[:n])
	s.Digest.count += int64(n)
	return n, err
}
