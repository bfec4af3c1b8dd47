// AngelaMos | 2026
// attachment_test.go

package attachment

import (
	"bytes"
	"crypto/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	for _, data := range [][]byte{{}, {0}, {0xff, 0x00, 0xfe}, random} {
		enc := Encode(&Attachment{Data: data, ContentType: "application/pdf"})
		require.NotNil(t, enc)

		dec, err := Decode(*enc)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, dec.Data))
		assert.Equal(t, "application/pdf", dec.ContentType)
	}
}

func TestEncodeNil(t *testing.T) {
	assert.Nil(t, Encode(nil))
	assert.Nil(t, Encode(&Attachment{ContentType: "image/png"}))
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(Encoded{Data: "not base64!!"})
	assert.Error(t, err)
}

func multipartRequest(t *testing.T, data []byte, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="certificate"; filename="cert.bin"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req
}

func TestFromMultipartSniffsGenericType(t *testing.T) {
	req := multipartRequest(t, pngHeader, "application/octet-stream")

	file, header, err := req.FormFile("certificate")
	require.NoError(t, err)
	defer file.Close()

	a, err := FromMultipart(file, header, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, pngHeader, a.Data)
}

func TestFromMultipartKeepsDeclaredType(t *testing.T) {
	req := multipartRequest(t, []byte("%PDF-1.4 body"), "application/pdf")

	file, header, err := req.FormFile("certificate")
	require.NoError(t, err)
	defer file.Close()

	a, err := FromMultipart(file, header, 1024)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", a.ContentType)
}

func TestFromMultipartLimits(t *testing.T) {
	req := multipartRequest(t, bytes.Repeat([]byte("a"), 64), "text/plain")
	file, header, err := req.FormFile("certificate")
	require.NoError(t, err)
	defer file.Close()

	_, err = FromMultipart(file, header, 32)
	assert.ErrorIs(t, err, ErrTooLarge)

	req = multipartRequest(t, nil, "text/plain")
	file, header, err = req.FormFile("certificate")
	require.NoError(t, err)
	defer file.Close()

	_, err = FromMultipart(file, header, 32)
	assert.ErrorIs(t, err, ErrEmpty)
}
