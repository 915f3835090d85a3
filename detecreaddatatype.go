package flotilla

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZlib
	DataTypeBZip2
	DataTypeLZW
)

var dataTypeNames = [...]string{
	DataTypeInvalid:       "invalid",
	DataTypeNoCompression: "uncompressed",
	DataTypeGzip:          "gzip",
	DataTypeZip:           "zip",
	DataTypeXZ:            "xz",
	DataTypeZlib:          "zlib",
	DataTypeBZip2:         "bzip2",
	DataTypeLZW:           "LZW (.Z)",
}

func (dt DataType) String() string {
	if int(dt) < len(dataTypeNames) {
		return dataTypeNames[dt]
	}
	return fmt.Sprintf("DataType(%d)", byte(dt))
}

// ErrUnsupportedCompression is returned for streams whose compression is
// recognized but cannot be read.
var ErrUnsupportedCompression = errors.New("unsupported compression")

// Byte code signatures from https://stackoverflow.com/a/19127748/199475. A
// zlib stream starts with 0x78 and a check byte; only the check bytes of the
// fastest, default and best compression levels are matched, since 0x78 is also
// 'x'.
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeLZW, []byte{0x1f, 0x9d}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
	{DataTypeZlib, []byte{0x78, 0x01}},
	{DataTypeZlib, []byte{0x78, 0x9c}},
	{DataTypeZlib, []byte{0x78, 0xda}},
}

// DetectDataType matches the leading bytes of a stream against known
// compression signatures.
func DetectDataType(head []byte) DataType {
	for _, v := range byteCodeSigs {
		if bytes.HasPrefix(head, v.sig) {
			return v.dt
		}
	}

	return DataTypeNoCompression
}

// MaybeDecompress peeks at the start of r and, if it carries a known
// compression signature, returns a reader over the decompressed bytes.
// Otherwise the returned reader yields r's bytes unchanged. Zip archives yield
// their first entry.
func MaybeDecompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	// A short stream is fine: it just can't be compressed.
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, pfx.Err(err)
	}

	switch DetectDataType(head) {
	case DataTypeGzip:
		return gzip.NewReader(br)
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return zr, nil
	case DataTypeBZip2:
		return bzip2.NewReader(br), nil
	case DataTypeXZ:
		return xz.NewReader(br, 0)
	case DataTypeZlib:
		return zlib.NewReader(br)
	case DataTypeLZW:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, DataTypeLZW)
	}

	// No data type detected. For now, we assume this is uncompressed.
	return br, nil
}
