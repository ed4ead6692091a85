package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints the export download tokens. A token ties a job ID,
// an expiry and a stored file name together under an HMAC, so a download
// link can be handed out without authentication and still only open the
// file it was minted for.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner builds a signer; a non-positive TTL falls back to a day.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl}
}

// Generate mints a token for the job's stored file. The token consists of
// dot-separated segments and never contains a slash, so it is safe inside a
// URL path.
func (s *DownloadSigner) Generate(jobID, fileName string) (string, time.Time, error) {
	if jobID == "" || fileName == "" {
		return "", time.Time{}, fmt.Errorf("job id and file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	body := strings.Join([]string{
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(fileName)),
	}, ".")
	return body + "." + s.sign(body), expiresAt, nil
}

// Parse checks the token's signature and expiry and returns what it embeds.
// allowExpired skips the expiry check so cleanup can still resolve stale
// tokens to file names.
func (s *DownloadSigner) Parse(token string, allowExpired bool) (jobID, fileName string, expiresAt time.Time, err error) {
	i := strings.LastIndex(token, ".")
	if i < 0 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	body, signature := token[:i], token[i+1:]
	if !hmac.Equal([]byte(s.sign(body)), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("token signature mismatch")
	}

	segments := strings.Split(body, ".")
	if len(segments) != 3 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	expUnix, err := strconv.ParseInt(segments[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed token expiry")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	rawName, err := base64.RawURLEncoding.DecodeString(segments[2])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode file name: %w", err)
	}
	return segments[0], string(rawName), expiresAt, nil
}

func (s *DownloadSigner) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
