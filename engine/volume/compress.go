package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// MaxDecodedSize caps a decompressed volume whatever its header claims.
const MaxDecodedSize = 4 << 30

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether buf starts with a zstd frame.
func IsCompressed(buf []byte) bool {
	return bytes.HasPrefix(buf, zstdMagic)
}

// Compress zstd-encodes an encoded volume buffer.
//
// Parameters:
//   - buf: the raw volume bytes, typically from Encode
//
// Returns:
//   - []byte: the compressed stream
//   - error: an error if the encoder cannot be created
func Compress(buf []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(buf, nil), nil
}

// Decompress decodes a zstd-compressed volume buffer. The header is decoded first and the
// body is read only up to the size it declares, so a stream that expands past its header
// never reaches memory.
//
// Parameters:
//   - buf: the compressed stream
//
// Returns:
//   - []byte: the raw volume bytes
//   - error: a *FormatError if the stream is corrupt or declares more than MaxDecodedSize bytes
func Decompress(buf []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(buf),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxDecodedSize),
	)
	if err != nil {
		return nil, &FormatError{Reason: "corrupt zstd stream", Size: len(buf), Err: err}
	}
	defer dec.Close()

	head := make([]byte, HeaderSize)
	if _, err := io.ReadFull(dec, head); err != nil {
		return nil, &FormatError{Reason: "corrupt zstd stream", Size: len(buf), Err: err}
	}
	need := ExpectedSize(
		int(int32(binary.LittleEndian.Uint32(head[0:]))),
		int(int32(binary.LittleEndian.Uint32(head[4:]))),
		int(int32(binary.LittleEndian.Uint32(head[8:]))),
	)
	if need > MaxDecodedSize {
		return nil, &FormatError{Reason: fmt.Sprintf("declared size %d exceeds %d", need, int64(MaxDecodedSize)), Size: len(buf)}
	}

	body, err := io.ReadAll(io.LimitReader(dec, need-HeaderSize))
	if err != nil {
		return nil, &FormatError{Reason: "corrupt zstd stream", Size: len(buf), Err: err}
	}
	return append(head, body...), nil
}
