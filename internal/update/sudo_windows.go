//go:build windows

package update

import "fmt"

// NeedsElevation always returns false on Windows; 'forge update' relies on
// the user running an elevated shell instead of auto-elevating.
func NeedsElevation(binaryPath string) bool {
	return false
}

// ReExecWithSudo is not supported on Windows.
func ReExecWithSudo() error {
	return fmt.Errorf("automatic elevation is not supported on Windows; rerun 'forge update' as Administrator")
}
