package config

import (
	"encoding/hex"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// NewSecureCookie signs and encrypts the session cookie. SESSION_HASH_KEY
// (32 or 64 bytes) and SESSION_BLOCK_KEY (16, 24 or 32 bytes) are hex
// encoded. Random keys are generated when unset, so sessions do not survive
// a restart.
func NewSecureCookie(config *koanf.Koanf, log *zap.Logger) *securecookie.SecureCookie {
	hashKey := decodeKey(config, log, "SESSION_HASH_KEY", 64)
	blockKey := decodeKey(config, log, "SESSION_BLOCK_KEY", 32)

	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(int(DurationOr(config, "SESSION_TTL", 24*time.Hour).Seconds()))
	cookie.SetSerializer(securecookie.JSONEncoder{})

	return cookie
}

func decodeKey(config *koanf.Koanf, log *zap.Logger, name string, size int) []byte {
	raw := config.String(name)
	if raw == "" {
		log.Warn("session key not configured, generating an ephemeral one", zap.String("key", name))
		return securecookie.GenerateRandomKey(size)
	}

	key, err := hex.DecodeString(raw)
	if err != nil {
		log.Fatal("session key is not valid hex", zap.String("key", name), zap.Error(err))
	}

	return key
}
