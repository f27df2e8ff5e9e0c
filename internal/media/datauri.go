package media

import (
	"encoding/base64"
	"strings"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// JPEGMime is the content type of every image the pipeline produces.
const JPEGMime = "image/jpeg"

// EncodeDataURI returns data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodeDataURI parses a base64 data URI into its content type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, apperrors.New(apperrors.ErrValidation, "image is not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, apperrors.New(apperrors.ErrValidation, "data URI has no payload")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, apperrors.New(apperrors.ErrValidation, "data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrValidation, "invalid base64 payload", err)
	}
	return mime, data, nil
}

// DecodedSize returns the decoded byte size of a data URI payload without
// decoding it. Non data URIs report their string length.
func DecodedSize(uri string) int {
	_, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return len(uri)
	}
	return base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload[max(0, len(payload)-2):], "=")
}
