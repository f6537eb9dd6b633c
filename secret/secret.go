// Package secret provides zeroization helpers for buffers holding raw key
// material. Every seed, entropy buffer and derived symmetric key in this
// repository is wiped through these helpers on all exit paths.
package secret

// Wipe overwrites b with zero bytes.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WipeAll wipes each buffer in turn.
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Wipe(b)
	}
}

// Do hands fn a buffer that is guaranteed to be zeroed when fn returns,
// whether it succeeds, errors, or panics.
func Do(buf []byte, fn func([]byte) error) error {
	defer Wipe(buf)
	return fn(buf)
}
