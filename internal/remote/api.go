package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"

	"examclient/internal/judge/model"
	appErr "examclient/pkg/errors"
)

const contentTypeJSON = "application/json"

// Status probes the health endpoint. A reachable server that reports
// success=false is not considered alive.
func (c *Client) Status(ctx context.Context) Outcome {
	info, err := c.Do(ctx, http.MethodGet, pathStatus, "", nil)
	out := outcome(info, err)
	if !out.OK {
		return out
	}
	var body StatusResponse
	if err := json.Unmarshal(info.Body, &body); err != nil {
		return Outcome{StatusCode: info.StatusCode, Err: appErr.Wrapf(err, appErr.ServerRejected, "decode status failed")}
	}
	if !body.Success {
		return Outcome{StatusCode: info.StatusCode, Err: appErr.New(appErr.ServerRejected).WithMessage("server reported not ready")}
	}
	return out
}

// FetchConfig downloads the authoritative exam configuration.
func (c *Client) FetchConfig(ctx context.Context) (model.ExamConfig, Outcome) {
	info, err := c.Do(ctx, http.MethodGet, pathGetConfig, "", nil)
	out := outcome(info, err)
	if !out.OK {
		return model.ExamConfig{}, out
	}
	cfg, err := model.ParseExamConfig(info.Body)
	if err != nil {
		return model.ExamConfig{}, Outcome{StatusCode: info.StatusCode, Err: err}
	}
	return cfg, out
}

// PostResult uploads the result table.
func (c *Client) PostResult(ctx context.Context, payload ResultPayload) Outcome {
	return c.postJSON(ctx, pathPostResult, payload)
}

// VerifyStudent asks the server whether a student id may take the exam.
func (c *Client) VerifyStudent(ctx context.Context, req VerifyRequest) (VerifyResponse, Outcome) {
	body, err := json.Marshal(req)
	if err != nil {
		return VerifyResponse{}, Outcome{Err: appErr.Wrapf(err, appErr.InternalServerError, "encode verify request failed")}
	}
	info, err := c.Do(ctx, http.MethodPost, pathVerifyStudent, contentTypeJSON, body)
	out := outcome(info, err)
	if !out.OK {
		return VerifyResponse{}, out
	}
	var resp VerifyResponse
	if err := json.Unmarshal(info.Body, &resp); err != nil {
		return VerifyResponse{}, Outcome{StatusCode: info.StatusCode, Err: appErr.Wrapf(err, appErr.ServerRejected, "decode verify response failed")}
	}
	return resp, out
}

// UploadProgram uploads the packed submission archive as multipart form.
func (c *Client) UploadProgram(ctx context.Context, sub Submission) Outcome {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"studentID", sub.StudentID},
		{"macAddress", sub.MACAddress},
		{"key", sub.Key},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return Outcome{Err: appErr.Wrapf(err, appErr.ArchiveFailed, "write form field %s failed", f[0])}
		}
	}
	fileName := sub.FileName
	if fileName == "" {
		fileName = "submission.zip"
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return Outcome{Err: appErr.Wrapf(err, appErr.ArchiveFailed, "create form file failed")}
	}
	if _, err := part.Write(sub.Archive); err != nil {
		return Outcome{Err: appErr.Wrapf(err, appErr.ArchiveFailed, "write archive failed")}
	}
	if err := w.Close(); err != nil {
		return Outcome{Err: appErr.Wrapf(err, appErr.ArchiveFailed, "close multipart writer failed")}
	}

	info, err := c.Do(ctx, http.MethodPost, pathUploadProgram, w.FormDataContentType(), buf.Bytes())
	return outcome(info, err)
}

// LogAction mirrors one action log entry.
func (c *Client) LogAction(ctx context.Context, entry ActionLog) Outcome {
	return c.postJSON(ctx, pathLogAction, entry)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Err: appErr.Wrapf(err, appErr.InternalServerError, "encode request failed")}
	}
	info, err := c.Do(ctx, http.MethodPost, path, contentTypeJSON, body)
	return outcome(info, err)
}
