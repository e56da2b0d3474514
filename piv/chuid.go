// Package piv encodes and decodes PIV data objects. The card application
// enforces no schema on the host, so all structural and semantic validation
// happens here before any decoded data reaches other layers.
package piv

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFormat is returned when a data object's byte layout is malformed.
	// A failed decode never leaves partial state behind.
	ErrFormat = errors.New("piv: malformed data object")
	// ErrNotPopulated is returned when encoding an object that is not fully
	// populated.
	ErrNotPopulated = errors.New("piv: data object not populated")
)

// fascnTemplate is the fixed 25-byte FASC-N used for CHUIDs minted by this
// layer, BCD-encoded with its trailing LRC digit included. Decode requires
// a byte-exact match.
var fascnTemplate = []byte{
	0xd4, 0xe7, 0x39, 0xda, 0x73, 0x9c, 0xed, 0x39,
	0xce, 0x73, 0x9d, 0x83, 0x68, 0x58, 0x21, 0x08,
	0x42, 0x10, 0x84, 0x21, 0xc8, 0x42, 0x10, 0xc3,
	0xeb,
}

const expirationDateLayout = "20060102"

// CardholderUniqueID is the CHUID data object. It is either fully empty
// (freshly constructed, IsEmpty reports true) or fully populated; decode
// failures never leave it half-filled.
type CardholderUniqueID struct {
	guid           uuid.UUID
	expirationDate time.Time
	signature      []byte
	populated      bool
}

// NewCardholderUniqueID returns a populated CHUID with the fixed FASC-N
// template, the given GUID and expiration date, and a zero-length issuer
// signature placeholder.
func NewCardholderUniqueID(guid uuid.UUID, expirationDate time.Time) *CardholderUniqueID {
	return &CardholderUniqueID{
		guid:           guid,
		expirationDate: expirationDate,
		populated:      true,
	}
}

// IsEmpty reports whether the object holds no data. An empty object cannot
// be encoded.
func (c *CardholderUniqueID) IsEmpty() bool {
	return !c.populated
}

// GUID returns the cardholder GUID.
func (c *CardholderUniqueID) GUID() uuid.UUID {
	return c.guid
}

// ExpirationDate returns the card expiration date.
func (c *CardholderUniqueID) ExpirationDate() time.Time {
	return c.expirationDate
}

// Signature returns the issuer asymmetric signature, which may be empty.
func (c *CardholderUniqueID) Signature() []byte {
	return c.signature
}

// SetSignature replaces the issuer asymmetric signature.
func (c *CardholderUniqueID) SetSignature(signature []byte) error {
	if !c.populated {
		return ErrNotPopulated
	}
	if len(signature) > 0xff {
		return fmt.Errorf("%w: issuer signature exceeds 255 bytes", ErrNotPopulated)
	}
	c.signature = slices.Clone(signature)
	return nil
}

// Encode produces the deterministic TLV sequence of the CHUID. Field order
// is fixed by the schema: FASC-N, GUID, expiration date, issuer signature,
// error detection code.
func (c *CardholderUniqueID) Encode() ([]byte, error) {
	if !c.populated {
		return nil, ErrNotPopulated
	}
	if len(c.signature) > 0xff {
		return nil, fmt.Errorf("%w: issuer signature exceeds 255 bytes", ErrNotPopulated)
	}

	date := c.expirationDate.Format(expirationDateLayout)

	var buf bytes.Buffer
	buf.WriteByte(tagFASCN)
	buf.WriteByte(byte(len(fascnTemplate)))
	buf.Write(fascnTemplate)
	buf.WriteByte(tagGUID)
	buf.WriteByte(16)
	buf.Write(c.guid[:])
	buf.WriteByte(tagExpirationDate)
	buf.WriteByte(8)
	buf.WriteString(date)
	buf.WriteByte(tagIssuerAsymmetricSignature)
	buf.WriteByte(byte(len(c.signature)))
	buf.Write(c.signature)
	buf.WriteByte(tagErrorDetectionCode)
	buf.WriteByte(0)

	return buf.Bytes(), nil
}

// Decode parses a CHUID byte sequence. Zero-length input yields the
// canonical empty state. Any malformed input fails with ErrFormat and
// leaves the receiver in its prior state: tag order is strict, every
// length is checked, the FASC-N must match the fixed template byte-exactly,
// the GUID must be 16 bytes, the date must be a valid calendar date, the
// error detection element must be present and empty, and no trailing bytes
// are tolerated.
func (c *CardholderUniqueID) Decode(data []byte) error {
	if len(data) == 0 {
		*c = CardholderUniqueID{}
		return nil
	}

	fascn, rest, err := readElement(data, tagFASCN)
	if err != nil {
		return err
	}
	if !bytes.Equal(fascn, fascnTemplate) {
		return fmt.Errorf("%w: FASC-N does not match template", ErrFormat)
	}

	guidBytes, rest, err := readElement(rest, tagGUID)
	if err != nil {
		return err
	}
	if len(guidBytes) != 16 {
		return fmt.Errorf("%w: GUID length %d", ErrFormat, len(guidBytes))
	}

	dateBytes, rest, err := readElement(rest, tagExpirationDate)
	if err != nil {
		return err
	}
	if len(dateBytes) != 8 {
		return fmt.Errorf("%w: expiration date length %d", ErrFormat, len(dateBytes))
	}
	expirationDate, err := time.Parse(expirationDateLayout, string(dateBytes))
	if err != nil {
		return fmt.Errorf("%w: expiration date %q", ErrFormat, dateBytes)
	}

	signature, rest, err := readElement(rest, tagIssuerAsymmetricSignature)
	if err != nil {
		return err
	}

	edc, rest, err := readElement(rest, tagErrorDetectionCode)
	if err != nil {
		return err
	}
	if len(edc) != 0 {
		return fmt.Errorf("%w: error detection code must be empty", ErrFormat)
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(rest))
	}

	c.guid = uuid.UUID(guidBytes)
	c.expirationDate = expirationDate
	c.signature = slices.Clone(signature)
	c.populated = true

	return nil
}

// readElement consumes one simple TLV element with the expected tag and a
// single-byte length.
func readElement(data []byte, tag byte) (value []byte, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, fmt.Errorf("%w: truncated element", ErrFormat)
	}
	if data[0] != tag {
		return nil, nil, fmt.Errorf("%w: expected tag 0x%02x, got 0x%02x", ErrFormat, tag, data[0])
	}
	length := int(data[1])
	if len(data) < 2+length {
		return nil, nil, fmt.Errorf("%w: element 0x%02x truncated", ErrFormat, tag)
	}
	return data[2 : 2+length], data[2+length:], nil
}
