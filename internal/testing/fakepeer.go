package testing

import (
	"net"
	"net/netip"
	"testing"
	"time"
)

// FakePeer plays the companion process on a loopback UDP socket.
type FakePeer struct {
	t    *testing.T
	conn *net.UDPConn
}

// NewFakePeer binds a FakePeer to a free loopback port. The socket is closed
// when the test ends.
func NewFakePeer(t *testing.T) *FakePeer {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("fake peer listen failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &FakePeer{t: t, conn: conn}
}

// Addr returns the peer's bound address.
func (p *FakePeer) Addr() netip.AddrPort {
	return p.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Port returns the peer's bound port.
func (p *FakePeer) Port() int { return int(p.Addr().Port()) }

// Send writes one datagram to the bridge at to. A wildcard address is
// replaced by loopback.
func (p *FakePeer) Send(to netip.AddrPort, data []byte) {
	p.t.Helper()
	if !to.Addr().IsValid() || to.Addr().IsUnspecified() {
		to = netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), to.Port())
	}
	if _, err := p.conn.WriteToUDPAddrPort(data, to); err != nil {
		p.t.Fatalf("fake peer send failed: %v", err)
	}
}

// Recv waits up to timeout for one datagram. Returns nil on timeout.
func (p *FakePeer) Recv(timeout time.Duration) []byte {
	p.t.Helper()
	buf := make([]byte, 1500)
	_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	n, _, err := p.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil
		}
		p.t.Fatalf("fake peer recv failed: %v", err)
	}
	return buf[:n]
}

// MustRecv is Recv failing the test on timeout.
func (p *FakePeer) MustRecv(timeout time.Duration) []byte {
	p.t.Helper()
	b := p.Recv(timeout)
	if b == nil {
		p.t.Fatalf("fake peer: no datagram within %s", timeout)
	}
	return b
}
