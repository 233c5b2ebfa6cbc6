// Package codec compresses blobs behind a short header naming the algorithm,
// so a reader can decode a blob written under any setting. Uncompressed blobs
// are stored as is, without a header, and anything lacking the header reads
// back unchanged.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies a compression algorithm. Its value is the last header byte.
type Kind byte

const (
	None Kind = iota
	Snappy
	LZ4
	ZSTD
)

// ErrUnknownKind is returned for a header or name that has no algorithm.
var ErrUnknownKind = errors.New("codec: unknown kind")

// magic starts every compressed blob. The leading NUL keeps it clear of the
// PNG signature and of text.
const magic = "\x00HZ"

// HeaderLen is the size of the header on compressed blobs.
const HeaderLen = len(magic) + 1

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Parse returns the Kind for a name as accepted by the --codec flag. The
// empty string is None.
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "raw":
		return None, nil
	case "snappy":
		return Snappy, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zstandard":
		return ZSTD, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func header(k Kind) []byte {
	h := make([]byte, 0, HeaderLen)
	h = append(h, magic...)
	return append(h, byte(k))
}

// Encode compresses data with k behind a header. None and empty data are
// returned unframed.
func Encode(k Kind, data []byte) ([]byte, error) {
	if k > ZSTD {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, byte(k))
	}
	if k == None || len(data) == 0 {
		return clone(data), nil
	}
	switch k {
	case Snappy:
		return append(header(Snappy), snappy.Encode(nil, data)...), nil

	case LZ4:
		buf := bytes.NewBuffer(header(LZ4))
		zw := lz4.NewWriter(buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("codec: lz4: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("codec: lz4: %w", err)
		}
		return buf.Bytes(), nil

	default:
		enc, err := zstd.Compress(nil, data)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd: %w", err)
		}
		return append(header(ZSTD), enc...), nil
	}
}

// Framed reports whether blob carries a compression header.
func Framed(blob []byte) bool {
	return len(blob) >= HeaderLen && string(blob[:len(magic)]) == magic
}

// Decode reverses Encode, whichever kind the blob was written with. A blob
// without a header is returned unchanged.
func Decode(blob []byte) ([]byte, error) {
	if !Framed(blob) {
		return clone(blob), nil
	}
	payload := blob[HeaderLen:]
	switch k := Kind(blob[HeaderLen-1]); k {
	case None:
		return clone(payload), nil

	case Snappy:
		out, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("codec: snappy: %w", err)
		}
		return out, nil

	case LZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return nil, fmt.Errorf("codec: lz4: %w", err)
		}
		return out, nil

	case ZSTD:
		out, err := zstd.Decompress(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: header kind %d", ErrUnknownKind, byte(k))
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
