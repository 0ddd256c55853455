package mimetypes

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestFromDataURI(t *testing.T) {
	png := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name string
		uri  string
		want MIME
	}{
		{"Sniffed PNG", "data:image/png;base64," + png, ImagePNG},
		{"Content wins over a wrong declaration", "data:image/jpeg;base64," + png, ImagePNG},
		{"Undecodable body falls back to declared type", "data:video/mp4;base64,@@@@", VideoMP4},
		{"Non base64 data URI uses declared type", "data:image/gif,GIF89a", ImageGIF},
		{"GIF search result URL", "https://media.giphy.com/media/abc/giphy.gif", Remote},
		{"Missing comma", "data:image/png;base64", Unknown},
		{"Garbage", "hello", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromDataURI(tt.uri))
		})
	}
}

func TestBucket(t *testing.T) {
	req := require.New(t)

	req.Equal(ImagePNG, Bucket(FromDataURI("data:image/png,abc")))
	req.Equal(Remote, Bucket(Remote))
	req.Equal(Unknown, Bucket(FromDataURI("data:x-42/y,abc")))
	req.Equal(Unknown, Bucket("application/pdf"))
}
