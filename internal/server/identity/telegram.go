// Package identity verifies Telegram-signed login assertions: the Login
// Widget callback payload and Web App initData.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
)

var errNoBotToken = fmt.Errorf("%w: bot token is not configured", common.ErrInvalidIdentity)

// Identity is the verified Telegram account.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
	AuthDate   time.Time
}

// LoginData is the Login Widget payload as posted by the browser.
type LoginData struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

type Verifier interface {
	VerifyLogin(d LoginData) (*Identity, error)
	VerifyWebApp(initData string) (*Identity, error)
}

// TelegramVerifier checks signatures with the bot token. When maxAge is
// positive, assertions older than maxAge are rejected. Without a bot token
// every assertion is rejected.
type TelegramVerifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

func NewTelegramVerifier(botToken string, maxAge time.Duration) *TelegramVerifier {
	return &TelegramVerifier{botToken: botToken, maxAge: maxAge, now: time.Now}
}

// VerifyLogin checks the widget hash: HMAC-SHA256 keyed with SHA256(token)
// over the sorted key=value lines of every non-empty field except hash.
func (v *TelegramVerifier) VerifyLogin(d LoginData) (*Identity, error) {
	if v.botToken == "" {
		return nil, errNoBotToken
	}
	if d.ID == 0 || d.Hash == "" {
		return nil, fmt.Errorf("%w: missing id or hash", common.ErrInvalidIdentity)
	}

	fields := map[string]string{
		"id":        strconv.FormatInt(d.ID, 10),
		"auth_date": strconv.FormatInt(d.AuthDate, 10),
	}
	for k, val := range map[string]string{
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"username":   d.Username,
		"photo_url":  d.PhotoURL,
	} {
		if val != "" {
			fields[k] = val
		}
	}

	key := sha256.Sum256([]byte(v.botToken))
	if !checkHash(key[:], fields, d.Hash) {
		return nil, fmt.Errorf("%w: bad signature", common.ErrInvalidIdentity)
	}

	id := &Identity{
		TelegramID: d.ID,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Username:   d.Username,
		PhotoURL:   d.PhotoURL,
		AuthDate:   time.Unix(d.AuthDate, 0),
	}
	if err := v.checkAge(id.AuthDate); err != nil {
		return nil, err
	}
	return id, nil
}

type webAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// VerifyWebApp checks Web App initData. The key is HMAC-SHA256("WebAppData", token).
func (v *TelegramVerifier) VerifyWebApp(initData string) (*Identity, error) {
	if v.botToken == "" {
		return nil, errNoBotToken
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidIdentity, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: missing hash", common.ErrInvalidIdentity)
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}

	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(v.botToken))
	if !checkHash(mac.Sum(nil), fields, hash) {
		return nil, fmt.Errorf("%w: bad signature", common.ErrInvalidIdentity)
	}

	raw := values.Get("user")
	if raw == "" {
		return nil, fmt.Errorf("%w: missing user", common.ErrInvalidIdentity)
	}
	var u webAppUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == 0 {
		return nil, fmt.Errorf("%w: malformed user", common.ErrInvalidIdentity)
	}

	var authDate time.Time
	if s := values.Get("auth_date"); s != "" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed auth_date", common.ErrInvalidIdentity)
		}
		authDate = time.Unix(sec, 0)
		if err := v.checkAge(authDate); err != nil {
			return nil, err
		}
	}

	return &Identity{
		TelegramID: u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		PhotoURL:   u.PhotoURL,
		AuthDate:   authDate,
	}, nil
}

func (v *TelegramVerifier) checkAge(at time.Time) error {
	if v.maxAge > 0 && v.now().Sub(at) > v.maxAge {
		return fmt.Errorf("%w: assertion expired", common.ErrInvalidIdentity)
	}
	return nil
}

// dataCheckString joins sorted key=value pairs with newlines, skipping hash.
func dataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + fields[k]
	}
	return strings.Join(lines, "\n")
}

func sign(key []byte, fields map[string]string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(dataCheckString(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

func checkHash(key []byte, fields map[string]string, got string) bool {
	return hmac.Equal([]byte(sign(key, fields)), []byte(strings.ToLower(got)))
}
