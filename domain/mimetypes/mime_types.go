package mimetypes

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown MIME = "unknown"
	// Remote is reported for media sent as a plain URL (GIF search results).
	Remote MIME = "remote"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"
	VideoMP4  MIME = "video/mp4"
	VideoWebM MIME = "video/webm"
)

var known = map[MIME]struct{}{
	Unknown: {}, Remote: {},
	ImagePNG: {}, ImageJPEG: {}, ImageGIF: {}, ImageWebP: {},
	VideoMP4: {}, VideoWebM: {},
}

// Bucket maps m to itself when it is one of the types above, to Unknown otherwise.
func Bucket(m MIME) MIME {
	if _, ok := known[m]; ok {
		return m
	}
	return Unknown
}

// sniffLen is enough base64 input for every signature mimetype knows about.
const sniffLen = 4096

// FromDataURI reports the media type of a relayed blob.
// Base64 data URIs are sniffed from their first bytes, the declared type is
// used when the content cannot be decoded. Plain URLs are reported as Remote.
func FromDataURI(uri string) MIME {
	if !strings.HasPrefix(uri, "data:") {
		if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
			return Remote
		}
		return Unknown
	}

	header, body, found := strings.Cut(uri[len("data:"):], ",")
	if !found {
		return Unknown
	}
	declared := Unknown
	if mt, _, err := mime.ParseMediaType(strings.TrimSuffix(header, ";base64")); err == nil && mt != "" {
		declared = MIME(mt)
	}
	if !strings.HasSuffix(header, ";base64") {
		return declared
	}

	if len(body) > sniffLen {
		body = body[:sniffLen]
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		// truncated input: decode what is complete
		raw, err = base64.StdEncoding.DecodeString(body[:len(body)/4*4])
		if err != nil {
			return declared
		}
	}

	detected := mimetype.Detect(raw)
	if detected.Is("application/octet-stream") || detected.Is("text/plain") {
		return declared
	}
	mt, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return declared
	}
	return MIME(mt)
}
