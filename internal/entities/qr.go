package entities

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const qrMACLength = 16

// QRCodec derives the opaque, signed payload printed in a ticket's QR code.
// The payload is stable for a given ticket and verifiable without a store read.
type QRCodec struct {
	secret []byte
}

func NewQRCodec(secret string) QRCodec {
	return QRCodec{secret: []byte(secret)}
}

type QRContent struct {
	Code    string
	EventID uuid.UUID
	UserID  uuid.UUID
}

func (c QRCodec) Encode(code string, eventID, userID uuid.UUID) string {
	body := strings.Join([]string{code, eventID.String(), userID.String()}, ".")
	raw := body + "." + base64.RawURLEncoding.EncodeToString(c.mac(body))

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (c QRCodec) Decode(payload string) (QRContent, error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return QRContent{}, fmt.Errorf("qr payload is not base64: %w", err)
	}

	parts := strings.Split(string(raw), ".")
	if len(parts) != 4 {
		return QRContent{}, fmt.Errorf("qr payload has %d parts, expected 4", len(parts))
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return QRContent{}, fmt.Errorf("qr signature is not base64: %w", err)
	}
	body := strings.Join(parts[:3], ".")
	if !hmac.Equal(sig, c.mac(body)) {
		return QRContent{}, fmt.Errorf("qr signature mismatch")
	}

	eventID, err := uuid.Parse(parts[1])
	if err != nil {
		return QRContent{}, fmt.Errorf("qr event id: %w", err)
	}
	userID, err := uuid.Parse(parts[2])
	if err != nil {
		return QRContent{}, fmt.Errorf("qr user id: %w", err)
	}

	return QRContent{Code: parts[0], EventID: eventID, UserID: userID}, nil
}

func (c QRCodec) mac(body string) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(body))
	return h.Sum(nil)[:qrMACLength]
}
