//go:build !unix

package filesystem

// Windows reports cross-volume moves as a generic error; there is nothing to
// distinguish here.
func isEXDEV(error) bool { return false }
