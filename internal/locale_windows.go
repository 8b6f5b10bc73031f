//go:build windows

package internal

import (
	"syscall"
	"unsafe"
)

var (
	kernel32                 = syscall.NewLazyDLL("kernel32.dll")
	procGetUserDefaultLocale = kernel32.NewProc("GetUserDefaultLocaleName")
)

// LOCALE_NAME_MAX_LENGTH
const localeNameMaxLen = 85

// platformLocale asks GetUserDefaultLocaleName, which answers in the "sv-SE" shape.
func platformLocale() string {
	buf := make([]uint16, localeNameMaxLen)
	ret, _, _ := procGetUserDefaultLocale.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(localeNameMaxLen),
	)
	if ret == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf)
}
