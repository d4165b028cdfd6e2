package keepalive

import (
	"net"
	"time"
)

// keepalivePayload is a single zero byte, the smallest datagram that still
// counts as outbound traffic to the Wi-Fi firmware.
var keepalivePayload = []byte{0x00}

const sendTimeout = 100 * time.Millisecond

// Sender transmits one keepalive datagram to a destination.
type Sender interface {
	Send(addr *net.UDPAddr) error
	Close() error
}

// SenderFactory opens a Sender. The scheduler calls it once per Start so a
// failed socket open aborts startup instead of surfacing later.
type SenderFactory func() (Sender, error)

// UDPSender sends fire-and-forget datagrams from one unconnected socket.
type UDPSender struct {
	conn *net.UDPConn
}

// NewUDPSender opens an unbound UDP socket for keepalive traffic.
func NewUDPSender() (Sender, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	return &UDPSender{conn: conn}, nil
}

// Send writes the keepalive payload to addr with a short write deadline, so a
// stalled network stack never blocks the scheduler loop for long.
func (s *UDPSender) Send(addr *net.UDPAddr) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
		return err
	}
	_, err := s.conn.WriteToUDP(keepalivePayload, addr)
	return err
}

// Close releases the socket. In-flight writes fail immediately afterwards.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
