package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec used by Pack.
type Compression uint8

const (
	// CompressionNone stores blocks verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 favors speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("%w: unknown compression %q", ErrInvalidArgument, s)
}

// Packed stream layout:
//
//	[PackMagic u32][codec u8][reserved 3][raw size u64]
//	{[raw u32][stored u32][data...]}*
//
// stored == 0 means the block is kept uncompressed.
const (
	PackMagic = 0x5A4C574F // "OWLZ"

	packHeaderSize  = 16
	blockHeaderSize = 8
	packBlockSize   = 1 << 20
)

// ErrCorruptPack is returned for malformed packed streams.
var ErrCorruptPack = errors.New("image: corrupt packed stream")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Pack writes src to dst as a packed stream and returns the bytes written.
func Pack(dst io.Writer, src []byte, c Compression) (int64, error) {
	if c > CompressionZSTD {
		return 0, fmt.Errorf("%w: unknown compression %d", ErrInvalidArgument, c)
	}

	var hdr [packHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], PackMagic)
	hdr[4] = byte(c)
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(src)))
	n, err := dst.Write(hdr[:])
	written := int64(n)
	if err != nil {
		return written, err
	}

	scratch := make([]byte, 0, blockHeaderSize+packBlockSize)
	for len(src) > 0 {
		block := src[:min(len(src), packBlockSize)]
		src = src[len(block):]

		out, err := compressBlock(scratch[:0], block, c)
		if err != nil {
			return written, err
		}
		n, err := dst.Write(out)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// compressBlock appends one framed block to dst. Blocks that do not shrink
// by at least 10% are stored.
func compressBlock(dst, block []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(block)))
		n, err := lz4.CompressBlock(block, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(block, nil)
		zstdEncoderPool.Put(enc)
	}

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(block)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(block))*0.9 {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
		return append(dst, block...), nil
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(compressed)))
	return append(dst, compressed...), nil
}

// Unpack decodes a packed stream produced by Pack.
func Unpack(src []byte) ([]byte, error) {
	if len(src) < packHeaderSize || binary.LittleEndian.Uint32(src) != PackMagic {
		return nil, fmt.Errorf("%w: missing header", ErrCorruptPack)
	}
	c := Compression(src[4])
	if c > CompressionZSTD {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptPack, c)
	}
	rawSize := binary.LittleEndian.Uint64(src[8:])
	src = src[packHeaderSize:]
	// Every block header announces at most packBlockSize bytes, bounding rawSize.
	if rawSize > uint64(len(src)/blockHeaderSize+1)*packBlockSize {
		return nil, fmt.Errorf("%w: implausible size %d", ErrCorruptPack, rawSize)
	}

	out := make([]byte, 0, rawSize)
	for len(src) > 0 {
		if len(src) < blockHeaderSize {
			return nil, fmt.Errorf("%w: truncated block header", ErrCorruptPack)
		}
		raw := int(binary.LittleEndian.Uint32(src[0:]))
		stored := int(binary.LittleEndian.Uint32(src[4:]))
		src = src[blockHeaderSize:]
		if raw > packBlockSize {
			return nil, fmt.Errorf("%w: block of %d bytes", ErrCorruptPack, raw)
		}

		if stored == 0 {
			if len(src) < raw {
				return nil, fmt.Errorf("%w: truncated block", ErrCorruptPack)
			}
			out = append(out, src[:raw]...)
			src = src[raw:]
			continue
		}

		if len(src) < stored {
			return nil, fmt.Errorf("%w: truncated block", ErrCorruptPack)
		}
		block, err := decompressBlock(src[:stored], raw, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPack, err)
		}
		out = append(out, block...)
		src = src[stored:]
	}

	if uint64(len(out)) != rawSize {
		return nil, fmt.Errorf("%w: got %d bytes, header says %d", ErrCorruptPack, len(out), rawSize)
	}
	return out, nil
}

func decompressBlock(data []byte, raw int, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		buf := make([]byte, raw)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			return nil, err
		}
		if n != raw {
			return nil, errors.New("decompressed size mismatch")
		}
		return buf, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(data, make([]byte, 0, raw))
		if err != nil {
			return nil, err
		}
		if len(decoded) != raw {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("compressed block in %s stream", c)
	}
}

// PackBytes is Pack into a new buffer.
func PackBytes(src []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(packHeaderSize + len(src)/2)
	if _, err := Pack(&buf, src, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
