package domain

// PayloadKind lists what the relay forwards between two partners.
type PayloadKind string

const (
	TextPayload  PayloadKind = "message"
	ImagePayload PayloadKind = "image"
	VideoPayload PayloadKind = "video"
)

func (k PayloadKind) IsMedia() bool {
	return k == ImagePayload || k == VideoPayload
}

// Payload is forwarded verbatim. Body holds the text for TextPayload and the
// blob URI for media.
type Payload struct {
	Kind PayloadKind
	Body string
}
