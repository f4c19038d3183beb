// Package auth hashes and verifies account passwords and validates the
// identity fields the user table stores.
//
// # Configuration
//
//	AUTH_BCRYPT_COST=10          # bcrypt cost factor
//	AUTH_MIN_PASSWORD_LENGTH=8   # shortest accepted password
//
// # Usage
//
//	passwords := auth.NewPasswords(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength)
//	hash, err := passwords.Hash("correct horse")
//	err = passwords.Check("correct horse", hash)
package auth
