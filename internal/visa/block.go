package visa

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// maxBlockLength caps the declared length of a definite block.
const maxBlockLength = 256 << 20

// ReadBlock reads an IEEE 488.2 binary block from r.
//
// Definite form is #<n><len><data> where n is the number of length digits.
// Indefinite form #0<data> runs to the next newline. Bytes before the '#' are
// skipped so stray terminators and echoed headers do not break the parse.
func ReadBlock(r *bufio.Reader) ([]byte, error) {
	data, _, err := readBlock(r)
	return data, err
}

// readBlock is ReadBlock that also reports whether the block was definite.
// Only a definite block leaves its terminator unread.
func readBlock(r *bufio.Reader) ([]byte, bool, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, false, err
		}
		if b == '#' {
			break
		}
	}

	nd, err := r.ReadByte()
	if err != nil {
		return nil, false, err
	}
	if nd < '0' || nd > '9' {
		return nil, false, fmt.Errorf("invalid block header: length digit %q", nd)
	}

	if nd == '0' {
		data, err := r.ReadBytes('\n')
		if err != nil {
			return nil, false, err
		}
		return bytes.TrimRight(data, "\r\n"), false, nil
	}

	digits := make([]byte, nd-'0')
	if _, err := io.ReadFull(r, digits); err != nil {
		return nil, false, err
	}
	length, err := strconv.Atoi(string(digits))
	if err != nil || length < 0 {
		return nil, false, fmt.Errorf("invalid block header: length %q", digits)
	}
	if length > maxBlockLength {
		return nil, false, fmt.Errorf("block length %d exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// EncodeBlock wraps data in a definite-length block header.
func EncodeBlock(data []byte) []byte {
	length := strconv.Itoa(len(data))
	out := make([]byte, 0, 2+len(length)+len(data))
	out = append(out, '#', byte('0'+len(length)))
	out = append(out, length...)
	return append(out, data...)
}
