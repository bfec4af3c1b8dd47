// AngelaMos | 2026
// attachment.go

package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

var (
	ErrEmpty    = errors.New("attachment is empty")
	ErrTooLarge = errors.New("attachment exceeds size limit")
)

// Attachment is a binary document together with its media type.
type Attachment struct {
	Data        []byte
	ContentType string
}

// Encoded is the transport form of an Attachment as it appears in JSON
// responses.
type Encoded struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

// Encode returns nil when there is nothing to encode so callers can
// omit the field.
func Encode(a *Attachment) *Encoded {
	if a == nil || a.Data == nil {
		return nil
	}
	return &Encoded{
		Data:        base64.StdEncoding.EncodeToString(a.Data),
		ContentType: a.ContentType,
	}
}

func Decode(e Encoded) (*Attachment, error) {
	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}
	return &Attachment{Data: data, ContentType: e.ContentType}, nil
}

// FromMultipart reads an uploaded part into memory. Reads are capped at
// limit bytes; a declared content type that is missing or generic is
// replaced by one sniffed from the data.
func FromMultipart(
	file multipart.File,
	header *multipart.FileHeader,
	limit int64,
) (*Attachment, error) {
	if header != nil && limit > 0 && header.Size > limit {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	if len(data) == 0 {
		return nil, ErrEmpty
	}

	ct := ""
	if header != nil {
		ct = header.Header.Get("Content-Type")
	}

	return &Attachment{Data: data, ContentType: resolveContentType(ct, data)}, nil
}

func resolveContentType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || strings.EqualFold(mediaType, defaultContentType) {
		return mimetype.Detect(data).String()
	}
	return declared
}
