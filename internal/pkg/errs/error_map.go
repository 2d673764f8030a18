package errs

import "net/http"

// errorMap holds the template CustomError for every known code.
// Messages of membership errors match what chat clients display verbatim.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:        {Code: ErrInvalidParams, Kind: KindValidation, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Kind: KindValidation, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Kind: KindValidation, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Kind: KindValidation, Message: "Request contains unexpected data."},
	ErrUnknownEvent:         {Code: ErrUnknownEvent, Kind: KindValidation, Message: "Unknown event %q."},

	// 2xxx
	ErrUsernameRoomRequired:  {Code: ErrUsernameRoomRequired, Kind: KindValidation, Message: "Username and room are required."},
	ErrUsernameInUse:         {Code: ErrUsernameInUse, Kind: KindConflict, Message: "Username is in use.", Status: http.StatusConflict},
	ErrNotJoined:             {Code: ErrNotJoined, Kind: KindValidation, Message: "Join a room first."},
	ErrAlreadyJoined:         {Code: ErrAlreadyJoined, Kind: KindValidation, Message: "Already joined a room on this connection."},
	ErrConnectionRegistered:  {Code: ErrConnectionRegistered, Kind: KindValidation, Message: "Connection is already registered."},
	ErrConnectionClosed:      {Code: ErrConnectionClosed, Kind: KindValidation, Message: "Connection closed."},
	ErrProfanity:             {Code: ErrProfanity, Kind: KindContentRejected, Message: "Profanity is not allowed!"},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Kind: KindValidation, Message: "Message is too long."},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Kind: KindInternal, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
