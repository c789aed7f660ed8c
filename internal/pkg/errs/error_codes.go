/*
Package errs provides custom error types and application-level error code constants.

These error codes identify business and system failures both inside the server and
in the error replies sent back over a connection.
*/
package errs

// Kind is the coarse error category reported alongside every error reply.
type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindNotFound        Kind = "NotFound"
	KindUnauthenticated Kind = "Unauthenticated"
	KindUnauthorized    Kind = "Unauthorized"
	KindConflict        Kind = "Conflict"
	KindStorage         Kind = "StorageError"
	KindInternal        Kind = "InternalError"
)

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body or event payload is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFileTooLarge indicates that an upload exceeds the size limit.
	ErrFileTooLarge = 1005

	// ErrFileTypeNotAllowed indicates that an upload is not a supported image type.
	ErrFileTypeNotAllowed = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnknownEvent indicates that a connection sent an event name the server does not handle.
	ErrUnknownEvent = 1008
)

// 2xxx: User, Friend and Chat Business Logic Errors
const (
	// ErrUserNotFound indicates that no user matches the given email or id.
	ErrUserNotFound = 2101

	// ErrDuplicateEmail indicates that the email is already registered.
	ErrDuplicateEmail = 2102

	// ErrSelfRequest indicates that a friend request resolves to the requester.
	ErrSelfRequest = 2201

	// ErrFriendEdgeExists indicates that a pending or accepted edge already links the pair.
	ErrFriendEdgeExists = 2202

	// ErrNotFriends indicates that chat or call relay was attempted between non-friends.
	ErrNotFriends = 2301
)

// 3xxx: Session and Security Errors
const (
	// ErrInvalidCredentials indicates that no user matches the email and password pair.
	ErrInvalidCredentials = 3001

	// ErrUnauthenticated indicates that the operation requires a logged-in connection.
	ErrUnauthenticated = 3002

	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3003

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid.
	ErrPowChallengeInvalid = 3004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates that the repository failed to complete an operation.
	ErrStorageFailed = 5001

	// ErrFileStorageFailed indicates that the object store could not presign an upload.
	ErrFileStorageFailed = 5002
)
