package util

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	PNGMimeType = "image/png"

	dataPrefix   = "data:"
	base64Marker = ";base64,"
)

var ErrNotDataURI = errors.New("not a base64 data uri")

// DataURI builds data:<mime>;base64,<payload> from an already encoded payload.
func DataURI(mime, b64 string) string {
	return dataPrefix + mime + base64Marker + b64
}

// PNGDataURI encodes raw PNG bytes as a data URI.
func PNGDataURI(data []byte) string {
	return DataURI(PNGMimeType, base64.StdEncoding.EncodeToString(data))
}

// StripDataURIPrefix returns the base64 payload of s, whether or not s
// carries a data:<mime>;base64, prefix.
func StripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, dataPrefix) {
		return s
	}
	if i := strings.Index(s, base64Marker); i >= 0 {
		return s[i+len(base64Marker):]
	}
	return s
}

// DecodeDataURI splits a base64 data URI into its mime type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, dataPrefix) {
		return "", nil, ErrNotDataURI
	}
	i := strings.Index(uri, base64Marker)
	if i < 0 {
		return "", nil, ErrNotDataURI
	}
	data, err := DecodeBase64(uri[i+len(base64Marker):])
	if err != nil {
		return "", nil, err
	}
	return uri[len(dataPrefix):i], data, nil
}

// DecodeBase64 accepts standard base64 with or without padding and ignores
// embedded whitespace.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
