package ops

import "io"

// copyAndCount copies src into dst and returns the number of bytes written.
func copyAndCount(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
