// Package input ingests candidate lists for the CLI. Host editors
// hand over lists in whatever encoding their runtime produced, so the
// reader sniffs Unicode BOMs and transcodes UTF-16 before splitting
// lines.
package input

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// Longest accepted candidate line; paths never come close.
const maxLineLen = 64 * 1024

type unicodeEncoding int

const (
	encodingUnknown unicodeEncoding = iota
	encodingUTF8BOM
	encodingUTF16LE
	encodingUTF16BE
)

func detectUnicodeEncoding(sample []byte) unicodeEncoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return encodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return encodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return encodingUTF16BE
		}
	}
	return encodingUnknown
}

// NormalizeContent converts known BOM-marked content into plain UTF-8.
// Content without a recognized BOM passes through unchanged.
func NormalizeContent(content []byte) []byte {
	if len(content) == 0 {
		return content
	}
	switch detectUnicodeEncoding(content) {
	case encodingUTF8BOM:
		return content[3:]
	case encodingUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case encodingUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	default:
		return content
	}
}

func decodeUTF16(content []byte, endian unicode.Endianness) []byte {
	decoder := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, err := decoder.Bytes(content)
	if err != nil {
		return content
	}
	return out
}

// ReadLines reads r to the end, normalizes its encoding, and splits it
// into lines. CR before LF is stripped; a trailing empty line is
// dropped.
func ReadLines(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = NormalizeContent(content)

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
