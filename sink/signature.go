package sink

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const pngDataPrefix = "data:image/png;base64,"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Signature is either typed text or a PNG drawn on the signature pad.
type Signature struct {
	Text  string
	Image []byte
}

// ParseSignature accepts a data URL from the pad or free text.
// Undecodable or non-PNG data URLs count as empty.
func ParseSignature(raw string) Signature {
	raw = strings.TrimSpace(raw)

	if !strings.HasPrefix(raw, "data:") {
		return Signature{Text: raw}
	}

	encoded, ok := strings.CutPrefix(raw, pngDataPrefix)
	if !ok {
		return Signature{}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !bytes.HasPrefix(data, pngMagic) {
		return Signature{}
	}

	return Signature{Image: data}
}

func (s Signature) IsEmpty() bool {
	return s.Text == "" && len(s.Image) == 0
}

// String renders the signature back into its wire form.
func (s Signature) String() string {
	if len(s.Image) > 0 {
		return pngDataPrefix + base64.StdEncoding.EncodeToString(s.Image)
	}
	return s.Text
}
