package engine

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire protocol: a fixed 16-byte header followed by a JSON payload,
// exchanged synchronously over a local stream socket.
const (
	protocolMagic   = 0x4B4B4342 // "KKCB"
	protocolVersion = 1

	headerSize = 16

	// maxPayload bounds a single message; candidate lists are small.
	maxPayload = 4 * 1024 * 1024
)

// msgType identifies the request or response kind.
type msgType uint16

const (
	msgConvert     msgType = 0x0001
	msgConvertResp msgType = 0x0002
	msgLearn       msgType = 0x0003
	msgLearnResp   msgType = 0x0004
	msgResetMemory msgType = 0x0005
	msgResetResp   msgType = 0x0006
	msgEndSession  msgType = 0x0007
	msgEndResp     msgType = 0x0008
	msgError       msgType = 0x00FF
)

type header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Type      msgType
	RequestID uint32
	Length    uint32
}

type message struct {
	Header  header
	Payload []byte
}

func newMessage(t msgType, requestID uint32, payload []byte) *message {
	return &message{
		Header: header{
			Magic:     protocolMagic,
			Version:   protocolVersion,
			Type:      t,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

func (h *header) write(w io.Writer) error {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
	_, err := w.Write(buf)
	return err
}

func readHeader(r io.Reader) (*header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	h := &header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      msgType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}
	if h.Magic != protocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}
	if h.Version > protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}
	return h, nil
}

func (m *message) write(w io.Writer) error {
	if err := m.Header.write(w); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		_, err := w.Write(m.Payload)
		return err
	}
	return nil
}

func readMessage(r io.Reader) (*message, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	m := &message{Header: *h}
	if h.Length > 0 {
		if h.Length > maxPayload {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// errorPayload carries an engine-side failure description.
type errorPayload struct {
	Message string `json:"message"`
}

// learnRequest identifies a candidate in the engine's last returned list.
type learnRequest struct {
	Index int `json:"index"`
}
