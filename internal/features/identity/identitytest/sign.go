// Package identitytest builds Telegram init data strings for tests.
package identitytest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sign appends the hash Telegram would compute for values under the bot token.
func Sign(values url.Values, token string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return signed.Encode()
}

// SignedUser returns fresh signed init data carrying the user JSON.
func SignedUser(userJSON, token string) string {
	return Sign(url.Values{
		"user":      {userJSON},
		"auth_date": {strconv.FormatInt(time.Now().Unix(), 10)},
		"query_id":  {"AAHdF6IQAAAAAN0XohDhrOrc"},
	}, token)
}

// Unsigned returns init data with a placeholder hash, enough for parsing.
func Unsigned(userJSON string) string {
	return url.Values{
		"user":      {userJSON},
		"auth_date": {"1700000000"},
		"hash":      {"f00dfeedbeef"},
	}.Encode()
}
