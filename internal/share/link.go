package share

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QueryParam carries the payload in a share link.
const QueryParam = "d"

// Link appends payload to baseURL. payload must already be query-escaped,
// as returned by Encode.
func Link(baseURL, payload string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + QueryParam + "=" + payload
}

// QRCode renders link as a square PNG of size pixels.
func QRCode(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
