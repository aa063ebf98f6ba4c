package tickloop

import (
	"encoding/binary"
	"fmt"
)

// PayloadSize returns the encoded size of v, a fixed-size value such as a
// struct of sized integers. Use it as the payloadSize argument of Register.
// It returns -1 if v has no fixed size.
func PayloadSize(v any) int {
	return binary.Size(v)
}

// EncodePayload writes v little-endian into dst without allocating.
// dst is typically Slot.Payload() or a caller-owned buffer passed as
// Event.Payload.
func EncodePayload(dst []byte, v any) error {
	if _, err := binary.Encode(dst, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// DecodePayload reads a little-endian value from src into v, which must be a
// pointer to a fixed-size value.
func DecodePayload(src []byte, v any) error {
	if _, err := binary.Decode(src, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
