package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Exam configuration errors
// 13000-13999: Judge module errors
// 14000-14999: Student identity errors
// 15000-15999: Grading server & sync errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Exam Configuration Errors (12000-12999) ==========

	ConfigNotLoaded     ErrorCode = 12000
	ConfigInvalid       ErrorCode = 12001
	ConfigReadFailed    ErrorCode = 12002
	PuzzleNotFound      ErrorCode = 12003
	DuplicateTestCaseID ErrorCode = 12004

	// ========== Judge Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SourceNotFound       ErrorCode = 13000
	LanguageNotSupported ErrorCode = 13003

	// Judge (13100-13199)
	JudgeBusy           ErrorCode = 13100
	JudgeSystemError    ErrorCode = 13101
	InterpreterNotFound ErrorCode = 13102
	ExecutionFailed     ErrorCode = 13103
	TimeLimitExceeded   ErrorCode = 13104
	JudgeCancelled      ErrorCode = 13105

	// ========== Student Identity Errors (14000-14999) ==========

	StudentNotFound     ErrorCode = 14000
	StudentNotVerified  ErrorCode = 14001
	StudentVerifyFailed ErrorCode = 14002

	// ========== Grading Server & Sync Errors (15000-15999) ==========

	ServerUnreachable ErrorCode = 15000
	ServerRejected    ErrorCode = 15001
	ArchiveFailed     ErrorCode = 15002
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Exam configuration
	ConfigNotLoaded:     "Exam configuration has not been loaded",
	ConfigInvalid:       "Exam configuration is invalid",
	ConfigReadFailed:    "Failed to read exam configuration",
	PuzzleNotFound:      "Puzzle not found",
	DuplicateTestCaseID: "Duplicate test case id",

	// Judge
	SourceNotFound:       "Submitted source file not found",
	LanguageNotSupported: "Programming language not supported",
	JudgeBusy:            "Another judging run is in progress",
	JudgeSystemError:     "Judge system error",
	InterpreterNotFound:  "Interpreter not found, please check the installation",
	ExecutionFailed:      "Program execution failed",
	TimeLimitExceeded:    "Time limit exceeded",
	JudgeCancelled:       "Judging was stopped",

	// Student
	StudentNotFound:     "Student ID not found",
	StudentNotVerified:  "Student identity has not been verified",
	StudentVerifyFailed: "Error verifying student ID",

	// Grading server
	ServerUnreachable: "Grading server is unreachable",
	ServerRejected:    "Grading server rejected the request",
	ArchiveFailed:     "Failed to package submission archive",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == PuzzleNotFound, c == SourceNotFound, c == StudentNotFound:
		return 404
	case c == JudgeBusy:
		return 409
	case c == StudentNotVerified:
		return 403
	case c == ServiceUnavailable, c == ServerUnreachable, c == ConfigNotLoaded:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == ConfigInvalid, c == DuplicateTestCaseID, c == LanguageNotSupported:
		return 400
	default:
		return 500
	}
}
