/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Status is the HTTP status used when the error is returned by an HTTP endpoint.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Kind: KindValidation, Reason: "ValidationError", Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Kind: KindValidation, Reason: "ValidationError", Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Kind: KindValidation, Reason: "ValidationError", Message: "Malformed JSON payload.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Kind: KindValidation, Reason: "ValidationError", Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFileTooLarge:         {Code: ErrFileTooLarge, Kind: KindValidation, Reason: "FileTooLarge", Message: "File is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrFileTypeNotAllowed:   {Code: ErrFileTypeNotAllowed, Kind: KindValidation, Reason: "FileTypeNotAllowed", Message: "Only JPEG, PNG, WebP and GIF images are allowed.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Kind: KindValidation, Reason: "RateLimited", Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknownEvent:         {Code: ErrUnknownEvent, Kind: KindValidation, Reason: "UnknownEvent", Message: "Unknown event."},

	// 2xxx: User, Friend and Chat Business Logic Errors
	ErrUserNotFound:     {Code: ErrUserNotFound, Kind: KindNotFound, Reason: "NotFound", Message: "User not found."},
	ErrDuplicateEmail:   {Code: ErrDuplicateEmail, Kind: KindConflict, Reason: "DuplicateEmail", Message: "Email is already registered."},
	ErrSelfRequest:      {Code: ErrSelfRequest, Kind: KindValidation, Reason: "SelfRequest", Message: "You cannot add yourself as a friend."},
	ErrFriendEdgeExists: {Code: ErrFriendEdgeExists, Kind: KindConflict, Reason: "AlreadyExists", Message: "A friend request or friendship already exists."},
	ErrNotFriends:       {Code: ErrNotFriends, Kind: KindUnauthorized, Reason: "NotFriends", Message: "You can only contact friends."},

	// 3xxx: Session and Security Errors
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Kind: KindUnauthenticated, Reason: "InvalidCredentials", Message: "Incorrect email or password."},
	ErrUnauthenticated:      {Code: ErrUnauthenticated, Kind: KindUnauthenticated, Reason: "Unauthenticated", Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Kind: KindUnauthorized, Reason: "PowRequired", Message: "Verification required. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Kind: KindValidation, Reason: "PowInvalid", Message: "Verification failed. Please try again.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Kind: KindInternal, Reason: "InternalError", Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed:     {Code: ErrStorageFailed, Kind: KindStorage, Reason: "StorageError", Message: "Storage is unavailable. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Kind: KindStorage, Reason: "StorageError", Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},
}
