package discovery

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultMTU is used when measurement fails and jumbo frames are not
// configured.
const DefaultMTU = 1500

// JumboMTU is the common jumbo-frame MTU, used as the fallback when the
// caller has enabled jumbo frames.
const JumboMTU = 9000

// MeasureMTU returns the kernel's per-path MTU to address. It opens
// a UDP socket toward address, sets IP_MTU_DISCOVER so fragmentation is
// disallowed (mirroring src/server.go's reach for a raw socket option via
// syscall.SetsockoptInt, here via golang.org/x/sys/unix for the IPv4/IPv6
// constants that package doesn't expose), and reads back IP_MTU. On any
// failure the caller should fall back to a configured default.
func MeasureMTU(address string) (uint32, error) {
	conn, err := net.DialTimeout("udp", address, 500*time.Millisecond)
	if err != nil {
		return 0, err
	}

	defer conn.Close()

	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		return 0, errors.New("discovery: not a UDP connection")
	}

	rawConn, err := udpConn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var mtu int
	var sockErr error

	ctrlErr := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO)
		if sockErr != nil {
			return
		}

		// Force the kernel to learn the path MTU with a throwaway probe;
		// a real implementation would use the vendor SDK's own path-MTU
		// measurement. EMSGSIZE here is expected and informative, not an
		// error: the kernel reports the path MTU via IP_MTU afterward.
		probe := make([]byte, 65000)
		_, _ = udpConn.Write(probe)

		mtu, sockErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MTU)
	})

	if ctrlErr != nil {
		return 0, ctrlErr
	}

	if sockErr != nil || mtu <= 0 {
		return 0, errors.New("discovery: path MTU measurement failed")
	}

	return uint32(mtu), nil
}
