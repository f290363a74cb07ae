package requests

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// radicadoAlphabet deliberately omits letters easily confused with digits
// (I, L, O, U) so radicados survive being read over the phone.
const (
	radicadoAlphabet   = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	radicadoSuffixLen  = 6
	radicadoDateLayout = "20060102"
)

// newRadicado produces a candidate radicado of the form LIC-YYYYMMDD-XXXXXX.
// Uniqueness is enforced by the database constraint, not here; the caller
// retries with a fresh candidate on collision.
func newRadicado(now time.Time) (string, error) {
	suffix := make([]byte, radicadoSuffixLen)
	max := big.NewInt(int64(len(radicadoAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating radicado suffix: %w", err)
		}
		suffix[i] = radicadoAlphabet[n.Int64()]
	}
	return fmt.Sprintf("LIC-%s-%s", now.UTC().Format(radicadoDateLayout), suffix), nil
}
