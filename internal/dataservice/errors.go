package dataservice

import (
	"errors"

	"github.com/mrlokans/lessonstore/internal/database"
)

var (
	// ErrUninitialized means an operation ran before Initialize succeeded.
	ErrUninitialized = errors.New("data service not initialized")
	// ErrInvalidCredentials means the email is unknown or the password is
	// wrong. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled means the credentials were right but the account is
	// disabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrValidation wraps every rejected input, with the detail in the message.
	ErrValidation = errors.New("validation failed")
)

// Storage errors surfaced unchanged from the stores.
var (
	ErrNotFound           = database.ErrNotFound
	ErrDuplicateKey       = database.ErrDuplicateKey
	ErrQuotaExceeded      = database.ErrQuotaExceeded
	ErrTransactionAborted = database.ErrTransactionAborted
)
