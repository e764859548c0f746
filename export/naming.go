package export

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"inspiria/source"
)

const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 9
)

// FileName returns "<app>-edit-<id>.png". A missing id is replaced by a
// random token.
func FileName(appName, id string) string {
	id = source.SanitizeForFilename(id)
	if id == "" {
		id = GenerateID()
	}
	return fmt.Sprintf("%s-edit-%s.png", appName, id)
}

// GenerateID returns a random token of nine characters from [a-z0-9].
func GenerateID() string {
	buf := make([]byte, idLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(fmt.Sprintf("export: read random: %v", err))
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf)
}
