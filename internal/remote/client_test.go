package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
	appErr "examclient/pkg/errors"
)

const testConfig = `{"testTitle":"Midterm","publicKey":"k-1","puzzles":[{"id":"p1","name":"Sum","language":"python","testCases":[]}]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pathStatus, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc(pathGetConfig, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testConfig))
	})
	mux.HandleFunc(pathPostResult, func(w http.ResponseWriter, r *http.Request) {
		var payload ResultPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if payload.Key != "k-1" || payload.StudentInformation.ID != "s001" {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if _, ok := payload.TestResult["p1"]; !ok {
			http.Error(w, "missing result", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc(pathVerifyStudent, func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := VerifyResponse{IsValid: req.StudentID == "s001" && req.MACAddress == "aa:bb"}
		if resp.IsValid {
			resp.Info = model.StudentInformation{ID: "s001", Name: "Alice"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc(pathUploadProgram, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("studentID") != "s001" || r.FormValue("key") != "k-1" || r.FormValue("macAddress") != "aa:bb" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "s001.zip" || string(data) != "zipdata" {
			http.Error(w, "bad file", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(pathLogAction, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientEndpoints(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	if out := c.Status(ctx); !out.OK {
		t.Fatalf("status: %+v", out)
	}

	cfg, out := c.FetchConfig(ctx)
	if !out.OK || cfg.TestTitle != "Midterm" {
		t.Fatalf("fetch config: %+v %+v", out, cfg)
	}

	run := result.RunResult{PuzzleID: "p1"}
	out = c.PostResult(ctx, ResultPayload{
		StudentInformation: model.StudentInformation{ID: "s001"},
		Key:                "k-1",
		TestResult:         result.Table{"p1": run},
	})
	if !out.OK {
		t.Fatalf("post result: %+v", out)
	}

	resp, out := c.VerifyStudent(ctx, VerifyRequest{StudentID: "s001", MACAddress: "aa:bb"})
	if !out.OK || !resp.IsValid || resp.Info.Name != "Alice" {
		t.Fatalf("verify: %+v %+v", out, resp)
	}
	resp, out = c.VerifyStudent(ctx, VerifyRequest{StudentID: "nobody"})
	if !out.OK || resp.IsValid {
		t.Fatalf("expected invalid student: %+v %+v", out, resp)
	}

	out = c.UploadProgram(ctx, Submission{
		StudentID:  "s001",
		MACAddress: "aa:bb",
		Key:        "k-1",
		FileName:   "s001.zip",
		Archive:    []byte("zipdata"),
	})
	if !out.OK {
		t.Fatalf("upload: %+v", out)
	}

	out = c.LogAction(ctx, ActionLog{ID: "1", Message: "hi"})
	if out.OK || out.Offline || out.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected rejection, got %+v", out)
	}
	if !appErr.Is(out.Err, appErr.ServerRejected) {
		t.Fatalf("expected server rejected, got %v", out.Err)
	}
}

func TestClientOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 200*time.Millisecond)
	out := c.Status(context.Background())
	if out.OK || !out.Offline {
		t.Fatalf("expected offline outcome, got %+v", out)
	}
	if !appErr.Is(out.Err, appErr.ServerUnreachable) {
		t.Fatalf("expected unreachable error, got %v", out.Err)
	}
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := New(srv.URL, 100*time.Millisecond)
	start := time.Now()
	out := c.Status(context.Background())
	if out.OK || !out.Offline {
		t.Fatalf("expected timeout to count as offline, got %+v", out)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestClientNoHost(t *testing.T) {
	c := New("", time.Second)
	out := c.Status(context.Background())
	if !out.Offline {
		t.Fatalf("expected offline without host, got %+v", out)
	}
}

func TestStatusNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	out := New(srv.URL, time.Second).Status(context.Background())
	if out.OK || out.Offline {
		t.Fatalf("expected not-ready rejection, got %+v", out)
	}
}
