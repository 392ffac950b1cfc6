package khqr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16_CheckValue(t *testing.T) {
	// Standard CRC-16/CCITT-FALSE conformance check value.
	assert.Equal(t, uint16(0x29B1), crc16([]byte("123456789")))
}

func TestChecksum_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "known vector",
			body: "00020101021152045999",
			want: "A50D",
		},
		{
			name: "empty body covers only the crc prefix",
			body: "",
			want: "6007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.body))
		})
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	body := "00020101021152045999"
	payload := body + crcPrefix + Checksum(body)

	assert.True(t, Verify(payload))
}

func TestVerify_Corrupted(t *testing.T) {
	body := "00020101021152045999"
	payload := body + crcPrefix + Checksum(body)

	// Flip one character in the body.
	corrupted := "9" + payload[1:]
	assert.False(t, Verify(corrupted))

	// Truncate below the minimum length.
	assert.False(t, Verify("6304"))
	assert.False(t, Verify(""))

	// Checksum field prefix missing.
	assert.False(t, Verify(body+"620455556007"))
}
