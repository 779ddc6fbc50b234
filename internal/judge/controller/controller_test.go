package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/store"
	appErr "examclient/pkg/errors"

	"github.com/gin-gonic/gin"
)

type fakeService struct {
	judgeErr   error
	judged     []string
	stopped    bool
	configErr  error
	verifyErr  error
	alive      bool
	localPath  string
	remoteHost string
	submits    int
}

func (f *fakeService) Judge(ctx context.Context, puzzleID, sourcePath string) (result.RunResult, error) {
	if f.judgeErr != nil {
		return result.RunResult{}, f.judgeErr
	}
	f.judged = append(f.judged, puzzleID+":"+sourcePath)
	return result.RunResult{PuzzleID: puzzleID, CaseCount: 2, CorrectCount: 1}, nil
}

func (f *fakeService) ForceStop(ctx context.Context) bool { return f.stopped }

func (f *fakeService) Running() (string, bool) { return "", false }

func (f *fakeService) TestResults() result.Table {
	return result.Table{"p1": {PuzzleID: "p1", CorrectCount: 1}}
}

func (f *fakeService) PuzzleSummaries() ([]model.PuzzleSummary, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}
	return []model.PuzzleSummary{{ID: "p1", Name: "sum", Language: "python"}}, nil
}

func (f *fakeService) ExamInfo() (model.ExamInfo, error) {
	if f.configErr != nil {
		return model.ExamInfo{}, f.configErr
	}
	return model.ExamInfo{TestTitle: "midterm"}, nil
}

func (f *fakeService) ServerAvailability() bool { return f.alive }

func (f *fakeService) ConfigStatus() store.ConfigStatus {
	return store.ConfigStatus{Loaded: f.configErr == nil}
}

func (f *fakeService) VerifyStudent(ctx context.Context, studentID string) (model.StudentInformation, error) {
	if f.verifyErr != nil {
		return model.StudentInformation{}, f.verifyErr
	}
	return model.StudentInformation{ID: studentID, Name: "Ada"}, nil
}

func (f *fakeService) Student() store.Student { return store.Student{} }

func (f *fakeService) LoadLocalConfig(ctx context.Context, path string) error {
	f.localPath = path
	return nil
}

func (f *fakeService) LoadRemoteConfig(ctx context.Context, host string) error {
	f.remoteHost = host
	return f.configErr
}

func (f *fakeService) Recheck(ctx context.Context) bool { return f.alive }

func (f *fakeService) SubmitNow(ctx context.Context) bool {
	f.submits++
	return f.alive
}

type fakeEvents struct{ served int }

func (f *fakeEvents) ServeWS(w http.ResponseWriter, r *http.Request) {
	f.served++
	w.WriteHeader(http.StatusSwitchingProtocols)
}

type envelope struct {
	Code    appErr.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
}

func newTestRouter(svc ExamService, events EventStream) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, svc, events)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusSwitchingProtocols {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestJudgeEndpoints(t *testing.T) {
	cases := []struct {
		name       string
		svc        *fakeService
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   appErr.ErrorCode
		verify     func(t *testing.T, svc *fakeService, env envelope)
	}{
		{
			name:       "judge_ok",
			svc:        &fakeService{},
			method:     http.MethodPost,
			path:       "/api/v1/judge",
			body:       JudgeRequest{PuzzleID: "p1", SourcePath: "/tmp/main.py"},
			wantStatus: http.StatusOK,
			wantCode:   appErr.Success,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var res result.RunResult
				if err := json.Unmarshal(env.Data, &res); err != nil {
					t.Fatalf("decode run result: %v", err)
				}
				if res.PuzzleID != "p1" || res.CorrectCount != 1 {
					t.Fatalf("unexpected result %+v", res)
				}
				if len(svc.judged) != 1 || svc.judged[0] != "p1:/tmp/main.py" {
					t.Fatalf("unexpected judge calls %v", svc.judged)
				}
			},
		},
		{
			name:       "judge_missing_fields",
			svc:        &fakeService{},
			method:     http.MethodPost,
			path:       "/api/v1/judge",
			body:       map[string]string{"puzzleId": "p1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   appErr.InvalidParams,
		},
		{
			name:       "judge_busy",
			svc:        &fakeService{judgeErr: appErr.New(appErr.JudgeBusy)},
			method:     http.MethodPost,
			path:       "/api/v1/judge",
			body:       JudgeRequest{PuzzleID: "p1", SourcePath: "/tmp/main.py"},
			wantStatus: appErr.JudgeBusy.HTTPStatus(),
			wantCode:   appErr.JudgeBusy,
		},
		{
			name:       "stop",
			svc:        &fakeService{stopped: true},
			method:     http.MethodPost,
			path:       "/api/v1/judge/stop",
			wantStatus: http.StatusOK,
			wantCode:   appErr.Success,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var res StopResponse
				_ = json.Unmarshal(env.Data, &res)
				if !res.Stopped {
					t.Fatalf("expected stopped=true")
				}
			},
		},
		{
			name:       "results",
			svc:        &fakeService{},
			method:     http.MethodGet,
			path:       "/api/v1/results",
			wantStatus: http.StatusOK,
			wantCode:   appErr.Success,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var table result.Table
				if err := json.Unmarshal(env.Data, &table); err != nil {
					t.Fatalf("decode table: %v", err)
				}
				if table["p1"].CorrectCount != 1 {
					t.Fatalf("unexpected table %+v", table)
				}
			},
		},
		{
			name:       "puzzles_without_config",
			svc:        &fakeService{configErr: appErr.New(appErr.ConfigNotLoaded)},
			method:     http.MethodGet,
			path:       "/api/v1/puzzles",
			wantStatus: appErr.ConfigNotLoaded.HTTPStatus(),
			wantCode:   appErr.ConfigNotLoaded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.svc, &fakeEvents{})
			w, env := doRequest(t, r, tc.method, tc.path, tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, w.Code, w.Body.String())
			}
			if env.Code != tc.wantCode {
				t.Fatalf("expected code %d, got %d", tc.wantCode, env.Code)
			}
			if tc.verify != nil {
				tc.verify(t, tc.svc, env)
			}
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	cases := []struct {
		name       string
		svc        *fakeService
		method     string
		path       string
		body       any
		wantStatus int
		verify     func(t *testing.T, svc *fakeService, env envelope)
	}{
		{
			name:       "verify_student",
			svc:        &fakeService{},
			method:     http.MethodPost,
			path:       "/api/v1/student/verify",
			body:       VerifyStudentRequest{StudentID: "s1"},
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var info model.StudentInformation
				_ = json.Unmarshal(env.Data, &info)
				if info.ID != "s1" {
					t.Fatalf("unexpected student %+v", info)
				}
			},
		},
		{
			name:       "verify_student_not_found",
			svc:        &fakeService{verifyErr: appErr.New(appErr.StudentNotFound)},
			method:     http.MethodPost,
			path:       "/api/v1/student/verify",
			body:       VerifyStudentRequest{StudentID: "s1"},
			wantStatus: http.StatusNotFound,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				if env.Message != "Student ID not found" {
					t.Fatalf("unexpected message %q", env.Message)
				}
			},
		},
		{
			name:       "local_config",
			svc:        &fakeService{},
			method:     http.MethodPost,
			path:       "/api/v1/config/local",
			body:       LocalConfigRequest{Path: "/exam/config.json"},
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				if svc.localPath != "/exam/config.json" {
					t.Fatalf("unexpected path %q", svc.localPath)
				}
			},
		},
		{
			name:       "remote_config_unreachable",
			svc:        &fakeService{configErr: appErr.New(appErr.ServerUnreachable)},
			method:     http.MethodPost,
			path:       "/api/v1/config/remote",
			body:       RemoteConfigRequest{Host: "http://grader:3000"},
			wantStatus: appErr.ServerUnreachable.HTTPStatus(),
		},
		{
			name:       "availability",
			svc:        &fakeService{alive: true},
			method:     http.MethodGet,
			path:       "/api/v1/availability",
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var res AvailabilityResponse
				_ = json.Unmarshal(env.Data, &res)
				if !res.Alive {
					t.Fatalf("expected alive")
				}
			},
		},
		{
			name:       "exam",
			svc:        &fakeService{},
			method:     http.MethodGet,
			path:       "/api/v1/exam",
			wantStatus: http.StatusOK,
		},
		{
			name:       "recheck",
			svc:        &fakeService{},
			method:     http.MethodPost,
			path:       "/api/v1/sync/recheck",
			wantStatus: http.StatusOK,
		},
		{
			name:       "submit",
			svc:        &fakeService{alive: true},
			method:     http.MethodPost,
			path:       "/api/v1/sync/submit",
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, svc *fakeService, env envelope) {
				var res SubmitResponse
				_ = json.Unmarshal(env.Data, &res)
				if !res.Uploaded || svc.submits != 1 {
					t.Fatalf("expected one upload, got %+v after %d calls", res, svc.submits)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.svc, &fakeEvents{})
			w, env := doRequest(t, r, tc.method, tc.path, tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.verify != nil {
				tc.verify(t, tc.svc, env)
			}
		})
	}
}

func TestEventsRoute(t *testing.T) {
	events := &fakeEvents{}
	r := newTestRouter(&fakeService{}, events)
	w, _ := doRequest(t, r, http.MethodGet, "/api/v1/events", nil)
	if w.Code != http.StatusSwitchingProtocols || events.served != 1 {
		t.Fatalf("expected websocket handler to be called, got %d", w.Code)
	}
}
