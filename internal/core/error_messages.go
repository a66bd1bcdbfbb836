package core

// error_messages.go maps errors to user-facing messages with a support code.
//
// Codes are grouped by family:
//
//	PART  part registration and lookup
//	CAT   category maintenance
//	VAL   input validation
//	FILE  CSV file handling
//	IMP   import runs
//	AUTH  sign-in and account rules
//	DB    storage
//	RATE  throttling
//
// Text patterns are tried first, in order. When none matches, the error kind
// (ErrNotFound, ErrConflict, ...) picks a family default. ERR000 is the final
// fallback; its technical cause is only in the server log.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	// Collected field errors carry per-field text that would match below.
	{"invalid search criteria", UserMessage{"Some search conditions are not valid", "Correct the highlighted fields and search again", "VAL004"}},

	// Parts
	{"part number already exists", UserMessage{"This part number is already registered", "Use a different part number or edit the existing part", "PART001"}},
	{"price must", UserMessage{"The price is not valid", "Enter a price from 0 to 99,999,999.99 with at most 2 decimals", "PART002"}},
	{"category not found", UserMessage{"The selected category does not exist", "Choose another category or leave it empty", "PART003"}},

	// Categories
	{"category name already exists", UserMessage{"A category with this name already exists", "Choose a different name", "CAT001"}},
	{"has child categories", UserMessage{"The category still has child categories", "Delete or move its child categories first", "CAT002"}},
	{"has parts", UserMessage{"Parts still belong to this category", "Move or delete those parts first", "CAT003"}},
	{"parent category", UserMessage{"The parent category is not valid", "Pick a top-level category other than this one", "CAT004"}},

	// Validation
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD", "VAL001"}},
	{"must be a number", UserMessage{"Invalid number format detected", "Use digits with an optional decimal point", "VAL002"}},
	{"is required", UserMessage{"A required field is empty", "Fill in every required field", "VAL003"}},
	{"at most", UserMessage{"A value is too long", "Shorten the highlighted field", "VAL005"}},

	// Files
	{"file too large", UserMessage{"The file exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"The file is not a valid CSV", "Ensure the file is comma-separated UTF-8 text", "FILE002"}},
	{"not a csv file", UserMessage{"Only .csv files can be imported", "Save the file as CSV and try again", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"}},
	{"invalid header", UserMessage{"The CSV header row is not recognized", "Start the file with: part number, part name, price, description, manufacturer", "FILE006"}},

	// Imports
	{"too many concurrent imports", UserMessage{"The system is busy with other imports", "Please wait a moment and try again", "IMP001"}},
	{"context canceled", UserMessage{"The request was cancelled", "Please try again", "IMP002"}},
	{"context deadline exceeded", UserMessage{"The request timed out", "Try a smaller file or try again later", "IMP003"}},

	// Auth
	{"invalid username or password", UserMessage{"Sign-in failed", "Check your username and password", "AUTH001"}},
	{"account disabled", UserMessage{"This account is disabled", "Ask an administrator to enable it", "AUTH002"}},
	{"last administrator", UserMessage{"The last administrator cannot be removed", "Promote another user to administrator first", "AUTH003"}},
	{"passwords do not match", UserMessage{"The passwords do not match", "Enter the same password twice", "AUTH004"}},
	{"username already exists", UserMessage{"This username is already taken", "Choose a different username", "AUTH005"}},
	{"email already exists", UserMessage{"This email address is already registered", "Use a different email address", "AUTH006"}},
	{"invalid session", UserMessage{"Your session has expired", "Please sign in again", "AUTH007"}},

	// Storage
	{"duplicate key", UserMessage{"A record with this value already exists", "Check for duplicate values", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB003"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// kindMessages apply when no pattern matches.
var kindMessages = []struct {
	kind error
	msg  UserMessage
}{
	{ErrNotFound, UserMessage{"The requested record does not exist", "It may have been deleted. Refresh and try again", "ERR404"}},
	{ErrValidation, UserMessage{"The input is not valid", "Correct the input and try again", "VAL000"}},
	{ErrConflict, UserMessage{"The change conflicts with existing data", "Refresh and try again", "ERR409"}},
	{ErrUnauthorized, UserMessage{"Please sign in", "Sign in and try again", "AUTH000"}},
	{ErrForbidden, UserMessage{"You do not have permission for this action", "Ask an administrator for access", "AUTH403"}},
	{ErrStorage, UserMessage{"The database could not complete the request", "Please try again later", "DB000"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. nil maps to the zero
// UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to anything other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown for it.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; nil stays nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
