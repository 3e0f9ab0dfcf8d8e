package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	tokenSalt    = []byte("campus.core.user.token_gen")
	tokenB32     = base32.StdEncoding.WithPadding(base32.NoPadding)
	tokenRefDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator makes and checks password reset tokens.
// A token is bound to the password hash and last login of the User so it dies once used.
type tokenGenerator struct {
	secret  string
	timeout time.Duration
	now     func() time.Time
}

func newTokenGenerator(secret string, timeout time.Duration) *tokenGenerator {
	return &tokenGenerator{secret: secret, timeout: timeout, now: time.Now}
}

// encodeUID base64 encodes given User ID
func encodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// decodeUID base64 decodes given UID
func decodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

func (tg *tokenGenerator) makeToken(usr User) (string, error) {
	return tg.makeTokenWithTimestamp(usr, daysSince2001(tg.now()))
}

func (tg *tokenGenerator) verifyToken(usr User, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}

	data, err := tokenB32.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := tg.makeTokenWithTimestamp(usr, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (daysSince2001(tg.now()) - ts) > int(tg.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (tg *tokenGenerator) makeTokenWithTimestamp(usr User, ts int) (string, error) {
	tsB32 := tokenB32.EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := tg.sign(hashValue(usr, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func (tg *tokenGenerator) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, tokenSalt...), tg.secret...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func daysSince2001(t time.Time) int {
	return int(math.Ceil(t.Sub(tokenRefDate).Hours() / 24))
}

func hashValue(usr User, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(usr.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
