// messages.go defines user-friendly error messages with codes for
// support reference. When users encounter errors, they can quote the
// error code to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
//	SRC001 - Source unreachable: the sheet could not be fetched
//	         Action: Check the link and ensure the sheet is link-shared
//	SRC002 - Source empty: the sheet has no data rows
//	SRC003 - Source too large: the sheet exceeds the row limit
//
//	MAP001 - No fields detected: no column matched a known field
//
//	IMP001 - Import in progress: another import is running for this org
//	IMP002 - Import failed: the import could not be applied
//
//	DB001-DB003 - Database connectivity and contention
//	REQ001-REQ002 - Request cancellation and timeout
//	RATE001 - Rate limited
//	ERR000 - Unknown error (fallback)
//
// Patterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.
package importer

import (
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

var errorPatterns = []errorPattern{
	// Source errors (SRC001-SRC003)
	{
		pattern: "source unreachable",
		msg: UserMessage{
			Message: "The sheet could not be fetched",
			Action:  "Check the link and make sure the sheet is shared with anyone who has the link",
			Code:    "SRC001",
		},
	},
	{
		pattern: "source is empty",
		msg: UserMessage{
			Message: "The sheet has no data rows",
			Action:  "Add data below the header row and try again",
			Code:    "SRC002",
		},
	},
	{
		pattern: "exceeds row limit",
		msg: UserMessage{
			Message: "The sheet is too large to import",
			Action:  "Split the sheet into smaller parts and import them separately",
			Code:    "SRC003",
		},
	},
	{
		pattern: "exceeds",
		msg: UserMessage{
			Message: "The sheet is too large to import",
			Action:  "Split the sheet into smaller parts and import them separately",
			Code:    "SRC003",
		},
	},

	// Mapping errors (MAP001)
	{
		pattern: "no recognizable fields",
		msg: UserMessage{
			Message: "No column matched a known field",
			Action:  "Rename the header row to common field names, or supply a manual mapping",
			Code:    "MAP001",
		},
	},
	{
		pattern: "mapping override",
		msg: UserMessage{
			Message: "The manual column mapping is invalid",
			Action:  "Check the mapping field names against the preview output",
			Code:    "MAP001",
		},
	},

	// Import errors (IMP001-IMP002)
	{
		pattern: "import already in progress",
		msg: UserMessage{
			Message: "Another import is already running for this organization",
			Action:  "Wait for the current import to finish and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "apply import",
		msg: UserMessage{
			Message: "The import could not be saved",
			Action:  "Please try again; no partial data was written",
			Code:    "IMP002",
		},
	},

	// Database errors (DB001-DB003)
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "The database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},

	// Request lifecycle (REQ001-REQ002)
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller sheet or check your connection",
			Code:    "REQ002",
		},
	},

	// Rate limiting (RATE001)
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support
// staff should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and
// returns the first match, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matched a specific pattern, as
// opposed to the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
