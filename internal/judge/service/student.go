package service

import (
	"context"
	"strings"

	"examclient/internal/judge/model"
	"examclient/internal/remote"
	"examclient/internal/store"
	appErr "examclient/pkg/errors"
	"examclient/pkg/utils/logger"

	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
)

// VerifyStudent checks a student id with the grading server, falling back to
// the exam's access list when the server cannot be asked.
func (s *Service) VerifyStudent(ctx context.Context, studentID string) (model.StudentInformation, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return model.StudentInformation{}, appErr.ValidationError("student_id", "required")
	}

	callCtx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	resp, out := s.remote.VerifyStudent(callCtx, remote.VerifyRequest{
		StudentID:  studentID,
		MACAddress: s.store.MACAddress(),
	})
	cancel()
	s.store.SetAvailability(out.OK)

	var info model.StudentInformation
	switch {
	case out.OK && resp.IsValid:
		info = resp.Info
		if info.ID == "" {
			info.ID = studentID
		}
	case out.OK:
		logger.Action(ctx, zap.WarnLevel, "student verification rejected", zap.String("student_id", studentID))
		return model.StudentInformation{}, appErr.New(appErr.StudentNotFound)
	default:
		user, ok := s.lookupAccessList(studentID)
		if !ok {
			logger.Warn(ctx, "student verification unavailable",
				zap.String("student_id", studentID),
				zap.Error(out.Err),
			)
			return model.StudentInformation{}, appErr.New(appErr.StudentVerifyFailed)
		}
		info = model.StudentInformation{ID: user.ID, Name: user.Name}
	}

	s.store.SetStudent(info, true)
	logger.Action(ctx, zap.InfoLevel, "student verified",
		zap.String("student_id", info.ID),
		zap.Bool("offline", !out.OK),
	)

	bg := context.WithoutCancel(ctx)
	threading.GoSafe(func() {
		s.Recheck(bg)
	})
	return info, nil
}

// Student returns the current student identity.
func (s *Service) Student() store.Student {
	return s.store.Student()
}

func (s *Service) lookupAccessList(studentID string) (model.AccessibleUser, bool) {
	cfg, ok := s.store.Config()
	if !ok {
		return model.AccessibleUser{}, false
	}
	return cfg.FindUser(studentID)
}
