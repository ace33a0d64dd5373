package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// UUIDShortCodes issues short codes cut from random UUIDs.
type UUIDShortCodes struct {
	Length int
}

func (u UUIDShortCodes) Issue(ctx context.Context) (string, error) {
	n := u.Length
	if n <= 0 || n > 20 {
		n = 10
	}
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	return code[:n], nil
}
