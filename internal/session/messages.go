package session

// messages.go maps technical errors to user-friendly messages with
// support codes. Patterns are matched case-insensitively with
// strings.Contains; the first match wins, so more specific patterns
// come before general ones.
//
// Code ranges:
//
//	FILE001-FILE099  file validation and parsing
//	SESS001-SESS099  session lifecycle and limits
//	CONV001-CONV099  value conversion
//	ERR000           fallback for unmatched errors

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable
// guidance and a code for support reference.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv, .tsv, or .txt file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Ensure the file is well-formed delimited text",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with at least a header row",
			Code:    "FILE004",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Upload session not found",
			Action:  "The session may have expired; start a new upload",
			Code:    "SESS001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "SESS002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The operation was cancelled",
			Action:  "Please try again",
			Code:    "SESS003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "SESS004",
		},
	},
	{
		pattern: "session is not ready",
		msg: UserMessage{
			Message: "The session has not finished processing",
			Action:  "Wait for analysis to complete and retry",
			Code:    "SESS005",
		},
	},
	{
		pattern: "cannot convert",
		msg: UserMessage{
			Message: "A value could not be converted to the selected type",
			Action:  "Review the reported cells or choose another type",
			Code:    "CONV001",
		},
	},
	{
		pattern: "unknown type",
		msg: UserMessage{
			Message: "The requested type is not recognized",
			Action:  "Choose one of the supported semantic types",
			Code:    "CONV002",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "The requested column does not exist",
			Action:  "Check the column index against the analyzed columns",
			Code:    "CONV003",
		},
	},
}

// defaultMessage is the ERR000 fallback; check application logs for
// the original technical error when users report it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
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

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
