/*
Package errs provides the application error type and its code constants.

Codes identify a failure both in logs and on the wire: HTTP responses carry them in the
JSON envelope, and WebSocket acknowledgements carry the matching user-facing message.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body or frame is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrUnknownEvent indicates that a WebSocket frame named an event the server does not handle.
	ErrUnknownEvent = 1008
)

// 2xxx: Room membership and content errors
const (
	// ErrUsernameRoomRequired indicates an empty username or room after normalization.
	ErrUsernameRoomRequired = 2001

	// ErrUsernameInUse indicates that the username is already taken in the room.
	ErrUsernameInUse = 2002

	// ErrNotJoined indicates an action that needs a joined session on a connection that has none.
	ErrNotJoined = 2003

	// ErrAlreadyJoined indicates a second join attempt on the same connection.
	ErrAlreadyJoined = 2004

	// ErrConnectionRegistered indicates that the connection already owns a participant.
	ErrConnectionRegistered = 2005

	// ErrConnectionClosed indicates an event on a connection that has already left.
	ErrConnectionClosed = 2006

	// ErrProfanity indicates that the content filter rejected the message.
	ErrProfanity = 2201

	// ErrMessageContentTooLong indicates that the message exceeded the maximum length.
	ErrMessageContentTooLong = 2202
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
