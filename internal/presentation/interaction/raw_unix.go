//go:build darwin || linux

package interaction

import (
	"os"

	"golang.org/x/sys/unix"
)

// enableRawMode disables echo and line buffering. ISIG stays on so Ctrl+C
// still reaches the signal handler.
func (kr *KeyboardReader) enableRawMode() error {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, getTermios)
	if err != nil {
		return err
	}
	kr.oldState = oldState

	newState := *oldState
	newState.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	newState.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, setTermios, &newState)
}

// disableRawMode restores the terminal state saved by enableRawMode.
func (kr *KeyboardReader) disableRawMode() error {
	if kr.oldState == nil {
		return nil
	}
	return unix.IoctlSetTermios(int(os.Stdin.Fd()), setTermios, kr.oldState)
}
