package remote

import (
	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
)

const (
	pathStatus        = "/api/status"
	pathGetConfig     = "/api/get-config"
	pathPostResult    = "/api/post-result"
	pathVerifyStudent = "/api/verify-student"
	pathUploadProgram = "/api/upload-program"
	pathLogAction     = "/api/log-action"
)

// StatusResponse is the body of the health endpoint.
type StatusResponse struct {
	Success bool `json:"success"`
}

// ResultPayload uploads the unmasked result table.
type ResultPayload struct {
	StudentInformation model.StudentInformation `json:"studentInformation"`
	Key                string                   `json:"key"`
	TestResult         result.Table             `json:"testResult"`
}

// VerifyRequest asks the server to confirm a student id.
type VerifyRequest struct {
	StudentID  string `json:"studentID"`
	MACAddress string `json:"macAddress"`
}

// VerifyResponse is the server's verdict on a student id.
type VerifyResponse struct {
	IsValid bool                     `json:"isValid"`
	Info    model.StudentInformation `json:"info"`
}

// Submission is the multipart upload of the packed source archive.
type Submission struct {
	StudentID  string
	MACAddress string
	Key        string
	FileName   string
	Archive    []byte
}

// ActionLog is one student action mirrored to the server.
type ActionLog struct {
	ID          string         `json:"id"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Timestamp   int64          `json:"timestamp"`
	StudentID   string         `json:"studentID"`
	StudentName string         `json:"studentName"`
	MACAddress  string         `json:"macAddress"`
	Fields      map[string]any `json:"fields,omitempty"`
}
