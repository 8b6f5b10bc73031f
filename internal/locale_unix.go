//go:build !windows && !darwin

package internal

// platformLocale has nothing beyond the environment to offer on Linux and the BSDs.
func platformLocale() string {
	return ""
}
