// Package resp implements the subset of the Redis serialization protocol
// needed to accept commands from redis clients and answer them.
package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// maxBulkLen caps the size of a single bulk string a client may send.
	maxBulkLen = 512 * 1024 * 1024
	// maxMultiBulkLen caps the number of elements in a command array.
	maxMultiBulkLen = 1024 * 1024
	// maxInlineLen caps the length of a single protocol line.
	maxInlineLen = 64 * 1024
)

// ErrProtocol is wrapped by every parse error caused by malformed input.
var ErrProtocol = errors.New("resp protocol error")

// BulkString encodes s as a length-prefixed bulk string.
func BulkString(s string) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)
}

// Array encodes elements as an array of bulk strings.
func Array(elements []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(elements))
	for _, elem := range elements {
		sb.WriteString(BulkString(elem))
	}
	return sb.String()
}

// Integer encodes an integer reply.
func Integer(i int64) string {
	return fmt.Sprintf(":%d\r\n", i)
}

// SimpleString encodes s as a status reply. s must not contain CR or LF.
func SimpleString(s string) string {
	return fmt.Sprintf("+%s\r\n", s)
}

// Null encodes the null bulk string.
func Null() string {
	return "$-1\r\n"
}

// Error encodes an error reply. Line breaks in msg are replaced by spaces.
func Error(msg string) string {
	msg = strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
	return fmt.Sprintf("-ERR %s\r\n", msg)
}

// ReadCommand reads one client command: either a RESP array of bulk strings
// or an inline command (a plain line, as sent by telnet). A blank inline line
// yields an empty slice and no error.
func ReadCommand(reader *bufio.Reader) ([]string, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(line, "*") {
		return strings.Fields(line), nil
	}

	numElements, err := strconv.Atoi(line[1:])
	if err != nil || numElements < 0 || numElements > maxMultiBulkLen {
		return nil, fmt.Errorf("%w: invalid multibulk length %q", ErrProtocol, line[1:])
	}

	var result []string
	for i := 0; i < numElements; i++ {
		line, err := readLine(reader)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(line, "$") {
			return nil, fmt.Errorf("%w: expected '$', got %q", ErrProtocol, line)
		}

		length, err := strconv.Atoi(line[1:])
		if err != nil || length < 0 || length > maxBulkLen {
			return nil, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line[1:])
		}

		// Grow with the bytes actually received, not the declared length.
		buf, err := io.ReadAll(io.LimitReader(reader, int64(length)+2))
		if err != nil {
			return nil, err
		}
		if len(buf) < length+2 {
			return nil, io.ErrUnexpectedEOF
		}
		if buf[length] != '\r' || buf[length+1] != '\n' {
			return nil, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}

		result = append(result, string(buf[:length]))
	}

	if result == nil {
		result = []string{}
	}
	return result, nil
}

func readLine(reader *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		if len(line)+len(chunk) > maxInlineLen {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrProtocol, maxInlineLen)
		}
		line = append(line, chunk...)

		switch {
		case err == nil:
			return strings.TrimRight(string(line), "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return "", io.ErrUnexpectedEOF
		default:
			return "", err
		}
	}
}
