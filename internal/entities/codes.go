package entities

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	crockfordAlphabet  = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	ticketCodePrefix   = "TKT-"
	ticketCodeLength   = 10
	privateCodeLength  = 8
	privateCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewTicketCode returns a human readable ticket id such as TKT-7QX2M9K4RD.
func NewTicketCode() (string, error) {
	s, err := randomString(crockfordAlphabet, ticketCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate ticket code: %w", err)
	}
	return ticketCodePrefix + s, nil
}

func NewPrivateCode() (string, error) {
	s, err := randomString(privateCodeCharset, privateCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate private code: %w", err)
	}
	return s, nil
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
