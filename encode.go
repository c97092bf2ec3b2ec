package hostid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// EncodeFileBytes renders the first 4 bytes read from the identifier file.
// The bytes are reversed and each is written with the minimal number of hex
// digits, so 0x07 becomes "7" and the result is 4 to 8 characters long. With
// padded set every byte takes exactly 2 digits.
func EncodeFileBytes(b []byte, padded bool) (string, error) {
	if len(b) < 4 {
		return "", &Error{Kind: KindTruncatedIdentifierFile, Err: fmt.Errorf("got %d bytes, want 4", len(b))}
	}
	rev := slices.Clone(b[:4])
	slices.Reverse(rev)

	format := "%x"
	if padded {
		format = "%02x"
	}
	var sb strings.Builder
	for _, c := range rev {
		fmt.Fprintf(&sb, format, c)
	}
	return sb.String(), nil
}

// EncodeAddress derives the identifier gethostid(3) reports for an IPv4
// address: the address in network byte order with its 16-bit halves swapped,
// written as 8 hex digits in little-endian byte order.
func EncodeAddress(addr string) (string, error) {
	octets, err := parseOctets(addr)
	if err != nil {
		return "", err
	}
	slices.Reverse(octets)

	v := Rotate16(binary.LittleEndian.Uint32(octets))

	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return hex.EncodeToString(out), nil
}

// Rotate16 swaps the upper and lower 16-bit halves of v. It is its own inverse.
func Rotate16(v uint32) uint32 {
	return bits.RotateLeft32(v, 16)
}

func parseOctets(addr string) ([]byte, error) {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return nil, &Error{Kind: KindMalformedAddress, Path: addr, Err: fmt.Errorf("got %d octets, want 4", len(parts))}
	}
	octets := make([]byte, 0, 4)
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, &Error{Kind: KindMalformedAddress, Path: addr, Err: err}
		}
		octets = append(octets, byte(n))
	}
	return octets, nil
}
