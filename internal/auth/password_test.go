package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswords_Hash(t *testing.T) {
	passwords := NewPasswords(bcrypt.MinCost, 8)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
			wantErr:  nil,
		},
		{
			name:     "password too short",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password at minimum length",
			password: "12345678",
			wantErr:  nil,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := passwords.Hash(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestPasswords_Check(t *testing.T) {
	passwords := NewPasswords(bcrypt.MinCost, 8)
	password := "testpassword123"
	hash, err := passwords.Hash(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{name: "correct password", password: password, hash: hash},
		{name: "incorrect password", password: "wrongpassword", hash: hash, wantErr: ErrInvalidPassword},
		{name: "empty password", password: "", hash: hash, wantErr: ErrInvalidPassword},
		{name: "plaintext stored value", password: password, hash: password, wantErr: ErrInvalidPassword},
		{name: "empty stored value", password: password, hash: "", wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := passwords.Check(tt.password, tt.hash)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewPasswords_Defaults(t *testing.T) {
	passwords := NewPasswords(0, 0)

	assert.Equal(t, bcrypt.DefaultCost, passwords.cost)
	assert.Equal(t, DefaultMinPasswordLength, passwords.minLength)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@school.edu"))
	assert.NoError(t, ValidateEmail("  padded@school.edu "))
	assert.ErrorIs(t, ValidateEmail("no-at-sign"), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail(""), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"), ErrEmailInvalid)
}

func TestPasswords_HashUncheckedIgnoresMinimum(t *testing.T) {
	passwords := NewPasswords(bcrypt.MinCost, 16)

	_, err := passwords.Hash("short@123")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := passwords.HashUnchecked("short@123")
	require.NoError(t, err)
	assert.NoError(t, passwords.Check("short@123", hash))

	_, err = passwords.HashUnchecked(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
