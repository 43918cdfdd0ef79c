package convert

import (
	"encoding/base64"
	"fmt"
)

// DecodeBase64Template decodes a Base64 document payload.
func DecodeBase64Template(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 document: %w", err)
	}
	return data, nil
}

// EncodeBase64 encodes document bytes as Base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
