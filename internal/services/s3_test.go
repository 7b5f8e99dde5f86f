package services

import (
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestValidateImage(t *testing.T) {
	ct, err := validateImage(fileHeader("ramen.png", "image/png", 1024))
	assert.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	ct, err = validateImage(fileHeader("ramen.JPG", "", 1024))
	assert.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = validateImage(fileHeader("menu.pdf", "application/pdf", 1024))
	assert.Error(t, err)

	_, err = validateImage(fileHeader("huge.png", "image/png", maxPhotoSize+1))
	assert.Error(t, err)
}
