package fortress

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

var (
	handshakeFrame = []byte{
		0x00, 0x00, 0x00, 0x03, 0x0f, 0x00, 0x00, 0x08, 0x00, 0x0a,
		0x4a, 0x51, 0x45, 0x42, 0x53, 0x53, 0x42, 0x4f, 0x4c, 0x41,
	}
	bindFrame         = []byte{0x00, 0x00, 0x00, 0x03, 0x04, 0x00, 0x00, 0x90, 0x02}
	bindAckFrame      = []byte{0x00, 0x00, 0x00, 0x03, 0x04, 0x00, 0x00, 0x09, 0x00}
	heartbeatFrame    = []byte{0x00, 0x00, 0x00, 0x03, 0x03, 0x00, 0x00, 0x15}
	heartbeatAckFrame = []byte{0x00, 0x00, 0x00, 0x03, 0x03, 0x00, 0x00, 0x16}
	commandHeader     = []byte{
		0x00, 0x00, 0x00, 0x03, 0x57, 0x00, 0x00, 0x90, 0x01, 0x00, 0x10, 0x00, 0x00,
	}
)

const (
	statusFrameSize    = 182
	heartbeatFrameSize = 8
	commandFrameSize   = 92

	statusWordOffset = 10
	zoneOffset       = 89
	alarmFlagOffset  = 181
	alarmingFlag     = 0x01
)

type frameKind uint8

const (
	frameStatus frameKind = iota + 1
	frameHeartbeat
	frameBindAck
)

func makeCommand(cmd Command) []byte {
	payload := make([]byte, 0, commandFrameSize)
	payload = append(payload, commandHeader...)
	payload = append(payload, byte(cmd))
	return append(payload, make([]byte, commandFrameSize-len(payload))...)
}

// parseFrame classifies an inbound buffer. Status frames are 182 bytes, any
// 8 byte buffer is a heartbeat reply, and the only 9 byte buffer allowed is
// the bind acknowledgement.
func parseFrame(buf []byte) (frameKind, error) {
	switch {
	case len(buf) == statusFrameSize:
		return frameStatus, nil
	case len(buf) == heartbeatFrameSize:
		return frameHeartbeat, nil
	case bytes.Equal(buf, bindAckFrame):
		return frameBindAck, nil
	default:
		return 0, fmt.Errorf(
			"%w: unexpected %d byte frame:\n%s",
			ErrProtocolViolation, len(buf), hex.Dump(buf),
		)
	}
}

// hasHeartbeatAck reports whether the heartbeat reply shows up anywhere in
// buf, the panel does not always align it to a read.
func hasHeartbeatAck(buf []byte) bool {
	return bytes.Contains(buf, heartbeatAckFrame)
}

func statusFromBytes(buf []byte) (Status, error) {
	if len(buf) != statusFrameSize {
		return Status{}, fmt.Errorf(
			"%w: invalid status:\n%s",
			ErrProtocolViolation, hex.Dump(buf),
		)
	}
	// top nibble is the arm status, the remaining 20 bits belong to the
	// smart outlets.
	word := mergeOctets(buf[statusWordOffset : statusWordOffset+3])
	return Status{
		ArmStatus: armStatusFor(word >> 20),
		Alarming:  buf[alarmFlagOffset] == alarmingFlag,
		Zone:      int(buf[zoneOffset]),
	}, nil
}

func armStatusFor(nibble int) ArmStatus {
	switch nibble {
	case 0, 1, 2:
		return ArmStatus(nibble << 4)
	default:
		return ArmStatusUnknown
	}
}

func mergeOctets(buf []byte) int {
	var n int
	for _, b := range buf {
		n = n<<8 | int(b)
	}
	return n
}
