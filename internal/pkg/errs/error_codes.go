/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat and Message Business Logic Errors
const (
	// ErrChatNotFound indicates that the referenced chat does not exist.
	ErrChatNotFound = 2101

	// ErrChatAccessDenied indicates that the user is not an active participant of the chat.
	ErrChatAccessDenied = 2102

	// ErrChatWithSelf indicates an attempt to open a private chat with oneself.
	ErrChatWithSelf = 2103

	// ErrMessageContentEmpty indicates that a message was submitted without content.
	ErrMessageContentEmpty = 2201

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2202

	// ErrContactExists indicates that the contact has already been added.
	ErrContactExists = 2301

	// ErrContactNotFound indicates that the referenced contact record does not exist.
	ErrContactNotFound = 2302
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid bearer token on a protected route.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates a failed phone/email + password login attempt.
	ErrInvalidCredentials = 3002

	// ErrUserAlreadyExists indicates that the phone or email is already registered.
	ErrUserAlreadyExists = 3003

	// ErrUserNotFound indicates that the referenced user account does not exist.
	ErrUserNotFound = 3004

	// ErrVerificationCodeInvalid indicates a wrong, expired, or already-used phone verification code.
	ErrVerificationCodeInvalid = 3005

	// ErrVerificationSendFailed indicates an internal failure while issuing a verification code.
	ErrVerificationSendFailed = 3006

	// ErrInvalidEmail indicates that the supplied email address failed validation.
	ErrInvalidEmail = 3007

	// ErrInvalidPassword indicates that the supplied password failed the length policy.
	ErrInvalidPassword = 3008
)

// 4xxx: Media and Storage Errors
const (
	// ErrFileTypeNotAllowed indicates that the uploaded file extension is not permitted.
	ErrFileTypeNotAllowed = 4001

	// ErrFileSizeTooLarge indicates that the uploaded file exceeded the size limit.
	ErrFileSizeTooLarge = 4002

	// ErrFileStorageFailed indicates that persisting the file to blob storage failed.
	ErrFileStorageFailed = 4003

	// ErrFileNotFound indicates that the requested stored file does not exist.
	ErrFileNotFound = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
