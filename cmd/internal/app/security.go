package app

import (
	"errors"

	"quest/cmd/security/token"
)

const minHMACKeyBytes = 32

// ValidateSecurityConfig fails startup when keyed session digests are required but unavailable.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	if _, err := token.HMACKeyFromEnv(minHMACKeyBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: QUEST_REQUIRE_TOKEN_HMAC=true but QUEST_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: QUEST_REQUIRE_TOKEN_HMAC=true but QUEST_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HasherFromEnv().Keyed() {
		return errors.New("security policy: QUEST_REQUIRE_TOKEN_HMAC=true but session digests are not keyed")
	}

	return nil
}
