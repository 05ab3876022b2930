package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	tokenSignal = "9000"
	dataMarker  = "7777:"
	separator   = ";"

	// newSentinel is the control value of a packet no recipient has judged
	// yet. Existing ring peers use this exact spelling.
	newSentinel = "naoexiste"
)

// ErrMalformed is returned for datagrams that are neither a token nor a
// well-formed data packet.
var ErrMalformed = errors.New("malformed frame")

// Kind distinguishes the two frame types.
type Kind int

const (
	KindToken Kind = iota
	KindData
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindToken:
		return "TOKEN"
	case KindData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Control is the verdict carried by a data packet.
type Control int

const (
	// New marks a packet its recipient has not judged.
	New Control = iota
	// Ack marks a packet whose checksum matched at the recipient.
	Ack
	// Nack marks a packet whose checksum did not match.
	Nack
)

// String returns the wire spelling of the control value.
func (c Control) String() string {
	switch c {
	case New:
		return newSentinel
	case Ack:
		return "ACK"
	case Nack:
		return "NACK"
	default:
		return "UNKNOWN"
	}
}

// ParseControl parses the wire spelling of a control value.
func ParseControl(s string) (Control, error) {
	switch s {
	case newSentinel:
		return New, nil
	case "ACK":
		return Ack, nil
	case "NACK":
		return Nack, nil
	default:
		return New, fmt.Errorf("%w: unknown control %q", ErrMalformed, s)
	}
}

// Packet is a data frame.
type Packet struct {
	Control     Control
	Origin      string
	Destination string
	Checksum    uint32
	Payload     []byte
}

// Token returns the encoded token signal.
func Token() []byte {
	return []byte(tokenSignal)
}

// Encode serializes a data packet.
func Encode(p Packet) ([]byte, error) {
	if err := ValidIdentity(p.Origin); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if err := ValidIdentity(p.Destination); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	var b bytes.Buffer
	b.Grow(len(dataMarker) + len(p.Origin) + len(p.Destination) + len(p.Payload) + 24)
	b.WriteString(dataMarker)
	b.WriteString(p.Control.String())
	b.WriteString(separator)
	b.WriteString(p.Origin)
	b.WriteString(separator)
	b.WriteString(p.Destination)
	b.WriteString(separator)
	b.WriteString(strconv.FormatUint(uint64(p.Checksum), 10))
	b.WriteString(separator)
	b.Write(p.Payload)
	return b.Bytes(), nil
}

// Decode parses a datagram. For KindToken the returned packet is zero.
func Decode(b []byte) (Kind, Packet, error) {
	if string(b) == tokenSignal {
		return KindToken, Packet{}, nil
	}
	if !bytes.HasPrefix(b, []byte(dataMarker)) {
		return KindData, Packet{}, fmt.Errorf("%w: unknown frame prefix", ErrMalformed)
	}

	fields := bytes.SplitN(b[len(dataMarker):], []byte(separator), 5)
	if len(fields) != 5 {
		return KindData, Packet{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformed, len(fields))
	}

	ctrl, err := ParseControl(string(fields[0]))
	if err != nil {
		return KindData, Packet{}, err
	}
	origin, dest := string(fields[1]), string(fields[2])
	if origin == "" || dest == "" {
		return KindData, Packet{}, fmt.Errorf("%w: empty origin or destination", ErrMalformed)
	}
	sum, err := strconv.ParseUint(string(fields[3]), 10, 32)
	if err != nil {
		return KindData, Packet{}, fmt.Errorf("%w: bad checksum %q", ErrMalformed, fields[3])
	}

	return KindData, Packet{
		Control:     ctrl,
		Origin:      origin,
		Destination: dest,
		Checksum:    uint32(sum),
		Payload:     append([]byte(nil), fields[4]...),
	}, nil
}

// ValidIdentity checks that a node identity can be carried in a data frame.
func ValidIdentity(id string) error {
	if id == "" {
		return errors.New("identity cannot be empty")
	}
	if strings.ContainsAny(id, ";:") {
		return fmt.Errorf("identity %q cannot contain ';' or ':'", id)
	}
	return nil
}
