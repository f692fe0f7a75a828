package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding an input was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF8BOM     Charset = "UTF-8 (BOM)"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO8859_15  Charset = "ISO-8859-15"
)

const sniffLen = 4096

var boms = []struct {
	prefix  []byte
	charset Charset
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8BOM},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// decoders maps chardet results onto x/text decoders. Spreadsheet exports
// from Windows machines are by far the most common non-UTF-8 input.
var decoders = map[string]struct {
	enc     xenc.Encoding
	charset Charset
}{
	"ISO-8859-1":   {charmap.Windows1252, Windows1252},
	"windows-1252": {charmap.Windows1252, Windows1252},
	"ISO-8859-15":  {charmap.ISO8859_15, ISO8859_15},
}

// NewUTF8Reader returns a reader producing UTF-8 from r along with the
// charset it detected. A BOM wins, then valid UTF-8, then chardet's best
// guess, then Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(buf, b.prefix) {
			continue
		}

		switch b.charset {
		case UTF8BOM:
			_, _ = br.Discard(len(b.prefix))
			return br, UTF8BOM, nil
		case UTF16LE:
			return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), UTF16LE, nil
		case UTF16BE:
			return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), UTF16BE, nil
		}
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, UTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == "UTF-8" {
			return br, UTF8, nil
		}

		if d, ok := decoders[result.Charset]; ok {
			return transform.NewReader(br, d.enc.NewDecoder()), d.charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), Windows1252, nil
}

// trimPartialRune drops a multi-byte sequence cut by the sniff window so
// that valid UTF-8 is not mistaken for something else.
func trimPartialRune(buf []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(buf); i++ {
		start := len(buf) - 1 - i
		if !utf8.RuneStart(buf[start]) {
			continue
		}

		if !utf8.FullRune(buf[start:]) {
			return buf[:start]
		}

		break
	}

	return buf
}
