/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat and Message Business Logic Errors
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrChatAccessDenied:      {Code: ErrChatAccessDenied, Message: "Access denied to chat.", Status: http.StatusForbidden},
	ErrChatWithSelf:          {Code: ErrChatWithSelf, Message: "Cannot create a chat with yourself.", Status: http.StatusBadRequest},
	ErrMessageContentEmpty:   {Code: ErrMessageContentEmpty, Message: "Message content is required.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrContactExists:         {Code: ErrContactExists, Message: "Contact is already in your list.", Status: http.StatusConflict},
	ErrContactNotFound:       {Code: ErrContactNotFound, Message: "Contact not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:            {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials:      {Code: ErrInvalidCredentials, Message: "Incorrect phone/email or password.", Status: http.StatusUnauthorized},
	ErrUserAlreadyExists:       {Code: ErrUserAlreadyExists, Message: "An account with this phone or email already exists.", Status: http.StatusConflict},
	ErrUserNotFound:            {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrVerificationCodeInvalid: {Code: ErrVerificationCodeInvalid, Message: "Verification code is invalid or expired.", Status: http.StatusBadRequest},
	ErrVerificationSendFailed:  {Code: ErrVerificationSendFailed, Message: "Failed to send verification code. Please try again.", Status: http.StatusInternalServerError},
	ErrInvalidEmail:            {Code: ErrInvalidEmail, Message: "Invalid email address.", Status: http.StatusBadRequest},
	ErrInvalidPassword:         {Code: ErrInvalidPassword, Message: "Password must be between 6 and 50 characters.", Status: http.StatusBadRequest},

	// 4xxx: Media and Storage Errors
	ErrFileTypeNotAllowed: {Code: ErrFileTypeNotAllowed, Message: "File type not allowed.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:   {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
	ErrFileNotFound:       {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
