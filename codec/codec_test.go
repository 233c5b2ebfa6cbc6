package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func payloads() map[string][]byte {
	random := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(random)
	return map[string][]byte{
		"empty":      {},
		"text":       []byte("protein-coding gene"),
		"repetitive": bytes.Repeat([]byte("HGNC:"), 2000),
		"random":     random,
	}
}

func TestRoundTrip(t *testing.T) {
	for _, k := range []Kind{None, Snappy, LZ4, ZSTD} {
		for name, data := range payloads() {
			frame, err := Encode(k, data)
			require.NoError(t, err, "%s/%s", k, name)
			if k == None || len(data) == 0 {
				require.Equal(t, data, frame, "%s/%s", k, name)
				require.False(t, Framed(frame), "%s/%s", k, name)
			} else {
				require.True(t, Framed(frame), "%s/%s", k, name)
				require.Equal(t, byte(k), frame[HeaderLen-1])
			}

			out, err := Decode(frame)
			require.NoError(t, err, "%s/%s", k, name)
			require.True(t, bytes.Equal(data, out), "%s/%s", k, name)
		}
	}
}

func TestCompresses(t *testing.T) {
	data := bytes.Repeat([]byte("locus_group"), 1000)
	for _, k := range []Kind{Snappy, LZ4, ZSTD} {
		frame, err := Encode(k, data)
		require.NoError(t, err)
		require.Less(t, len(frame), len(data)/4, k.String())
	}
}

func TestDecodeUnframed(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nDATA")
	out, err := Decode(png)
	require.NoError(t, err)
	require.Equal(t, png, out)

	// every tag byte value is plain data without the header
	for _, b := range []byte{0x00, 0x01, 0x02, 0x03, 0x7f} {
		out, err := Decode([]byte{b, 'x'})
		require.NoError(t, err)
		require.Equal(t, []byte{b, 'x'}, out)
	}

	out, err = Decode(nil)
	require.NoError(t, err)
	require.Empty(t, out)

	// a header naming None wraps plain data
	out, err = Decode(append([]byte(magic), byte(None), 'a'))
	require.NoError(t, err)
	require.Equal(t, []byte("a"), out)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(append([]byte(magic), 0x7f, 1, 2, 3))
	require.True(t, errors.Is(err, ErrUnknownKind))

	_, err = Decode(append([]byte(magic), byte(Snappy), 0xff, 0xff, 0xff))
	require.Error(t, err)

	_, err = Encode(Kind(9), []byte("x"))
	require.True(t, errors.Is(err, ErrUnknownKind))
}

func TestParse(t *testing.T) {
	for name, want := range map[string]Kind{
		"":       None,
		"none":   None,
		"Snappy": Snappy,
		"lz4":    LZ4,
		" zstd ": ZSTD,
	} {
		got, err := Parse(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := Parse("gzip")
	require.True(t, errors.Is(err, ErrUnknownKind))
	require.Equal(t, "kind(9)", Kind(9).String())
}
