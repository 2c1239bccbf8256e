package ipc

import (
	"fmt"
	"net"
	"os"
	"syscall"
)

var peerUIDMatchesCurrentUserFn = peerUIDMatchesCurrentUser

// peerUIDMatchesCurrentUser reports whether the process on the other end of
// a Unix socket runs as the same user as this one.
func peerUIDMatchesCurrentUser(conn net.Conn) (bool, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return false, fmt.Errorf("connection is not unix")
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return false, err
	}
	uid, err := controlPeerUID(raw)
	if err != nil {
		return false, err
	}
	return uid == uint32(os.Getuid()), nil
}

func controlPeerUID(raw syscall.RawConn) (uint32, error) {
	var (
		uid     uint32
		sockErr error
	)
	if err := raw.Control(func(fd uintptr) {
		uid, sockErr = peerUID(int(fd))
	}); err != nil {
		return 0, err
	}
	return uid, sockErr
}
