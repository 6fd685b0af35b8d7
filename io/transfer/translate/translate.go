// SPDX-License-Identifier: Unlicense OR MIT

// Package translate converts native drag and drop payloads into
// application values.
//
// Text formats are decoded according to their charset parameter and
// returned as strings, URI lists as []string, and every other format
// as the raw bytes.
package translate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	TextPlain = "text/plain"
	TextHTML  = "text/html"
	URIList   = "text/uri-list"
)

// ErrInvalidText is returned for text payloads that are not valid in
// their charset.
var ErrInvalidText = errors.New("translate: invalid text")

// Translator is the default format translator.
type Translator struct {
	// Binary lists MIME types that are returned as bytes even
	// though their type is "text".
	Binary []string
}

func New() *Translator {
	return new(Translator)
}

// Translate converts raw data in format to a string, []string or []byte.
func (t *Translator) Translate(format string, raw []byte) (interface{}, error) {
	mediaType, params, err := mime.ParseMediaType(format)
	if err != nil {
		return nil, fmt.Errorf("translate: %q: %w", format, err)
	}
	switch {
	case mediaType == URIList:
		text, err := decode(raw, params["charset"])
		if err != nil {
			return nil, err
		}
		uris, err := parseURIList(text)
		if err != nil {
			return nil, err
		}
		return uris, nil
	case strings.HasPrefix(mediaType, "text/") && !slices.Contains(t.Binary, mediaType):
		return decode(raw, params["charset"])
	default:
		return slices.Clone(raw), nil
	}
}

// decode decodes raw from charset to UTF-8. An empty charset means
// UTF-8, or UTF-16 if raw starts with a byte order mark.
func decode(raw []byte, charset string) (string, error) {
	enc, err := lookup(raw, charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: not UTF-8", ErrInvalidText)
		}
		return string(trimNUL(raw)), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidText, err)
	}
	return string(trimNUL(out)), nil
}

// lookup returns the encoding for charset, or nil for UTF-8.
func lookup(raw []byte, charset string) (encoding.Encoding, error) {
	cs := strings.ToLower(strings.TrimSpace(charset))
	switch cs {
	case "":
		if bytes.HasPrefix(raw, []byte{0xff, 0xfe}) || bytes.HasPrefix(raw, []byte{0xfe, 0xff}) {
			return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
		}
		return nil, nil
	case "utf-8", "utf8":
		return nil, nil
	case "utf-16":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return nil, fmt.Errorf("translate: charset %q: %w", charset, err)
	}
	return enc, nil
}

// trimNUL removes the terminating NUL characters native text
// buffers often carry.
func trimNUL(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}

// parseURIList parses a text/uri-list payload as defined by RFC 2483.
func parseURIList(text string) ([]string, error) {
	var uris []string
	s := bufio.NewScanner(strings.NewReader(text))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		uris = append(uris, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("translate: uri-list: %w", err)
	}
	return uris, nil
}
