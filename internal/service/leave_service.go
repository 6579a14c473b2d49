package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/scheduler"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

const leaveDateLayout = "2006-01-02"

// Admin responses recorded on decided leaves.
const (
	responseSundayRejected = "Leave rejected automatically as it falls on a Sunday."
	responseNoClasses      = "Approved. No classes found for this day."
	responseNoSubstitutes  = "Approved, but no substitutes were available."
	responseDeclined       = "Your leave request was declined by the administrator."
	sundayReasonSuffix     = " (Auto-Rejected: Sunday)"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type leaveStore interface {
	txProvider
	Create(ctx context.Context, leave *models.LeaveRequest) error
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequestDetail, error)
	ListApprovedTeacherIDs(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]string, error)
	UpdateDecision(ctx context.Context, exec sqlx.ExtContext, leave *models.LeaveRequest) error
}

type substitutionStore interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.SubstitutionDetail, error)
	ListByDateWithTx(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.SubstitutionDetail, error)
	ListByLeave(ctx context.Context, leaveID string) ([]models.SubstitutionDetail, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, subs []models.Substitution) error
}

type leaveTimetableReader interface {
	ListDetailedWithTx(ctx context.Context, tx *sqlx.Tx, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error)
}

type leaveTeacherReader interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
}

// LeaveService handles leave requests and substitute assignment.
type LeaveService struct {
	leaves        leaveStore
	substitutions substitutionStore
	timetable     leaveTimetableReader
	teachers      leaveTeacherReader
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	newRand       func() *rand.Rand
	now           func() time.Time
}

// NewLeaveService constructs a LeaveService. A zero seed picks substitutes from a clock-seeded source.
func NewLeaveService(
	leaves leaveStore,
	substitutions substitutionStore,
	timetable leaveTimetableReader,
	teachers leaveTeacherReader,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	seed int64,
) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		leaves:        leaves,
		substitutions: substitutions,
		timetable:     timetable,
		teachers:      teachers,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		newRand:       func() *rand.Rand { return scheduler.NewRand(seed) },
		now:           time.Now,
	}
}

// Request records a pending leave for the calling teacher.
func (s *LeaveService) Request(ctx context.Context, actor *models.JWTClaims, req dto.CreateLeaveRequest) (*models.LeaveRequest, error) {
	if actor == nil || actor.Role != models.RoleTeacher || actor.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can request leave")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	date, err := time.Parse(leaveDateLayout, req.LeaveDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "leave_date must use YYYY-MM-DD")
	}
	if date.Before(s.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot apply for leave in the past")
	}

	leave := &models.LeaveRequest{
		TeacherID: actor.TeacherID,
		LeaveDate: date,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    models.LeaveStatusPending,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, appErrors.FromStore(err, "leave request", "create")
	}
	s.logger.Info("leave requested", zap.String("leave_id", leave.ID), zap.String("teacher_id", leave.TeacherID), zap.String("date", req.LeaveDate))
	return leave, nil
}

// List returns leave requests. Teachers only see their own.
func (s *LeaveService) List(ctx context.Context, actor *models.JWTClaims, query dto.LeaveQuery) ([]models.LeaveRequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave query")
	}
	filter := models.LeaveFilter{}
	if query.Status != "" {
		status := models.LeaveStatus(query.Status)
		filter.Status = &status
	}
	if actor.Role == models.RoleTeacher {
		filter.TeacherID = actor.TeacherID
	}
	leaves, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return leaves, nil
}

// Approve decides a pending leave. Sunday leaves are rejected automatically; otherwise every
// affected session gets a substitute when one is free, and the leave is approved regardless.
func (s *LeaveService) Approve(ctx context.Context, id string) (decision *models.LeaveDecision, err error) {
	tx, err := s.leaves.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	leave, err := s.pendingLeave(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	day, ok := scheduler.DayFromWeekday(leave.LeaveDate.Weekday())
	if !ok {
		leave.Status = models.LeaveStatusRejected
		leave.Reason += sundayReasonSuffix
		leave.AdminResponse = stringPtr(responseSundayRejected)
		if err = s.leaves.UpdateDecision(ctx, tx, leave); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave request")
		}
		if err = tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit leave decision")
		}
		s.logger.Info("sunday leave rejected", zap.String("leave_id", leave.ID))
		return &models.LeaveDecision{Leave: *leave, Substitutions: []models.SubstitutionDetail{}}, nil
	}

	input, err := s.substitutionInput(ctx, tx, leave, day)
	if err != nil {
		return nil, err
	}
	result := scheduler.AssignSubstitutes(s.newRand(), input)

	rows := make([]models.Substitution, 0, len(result.Assignments))
	covered := make([]string, 0, len(result.Assignments))
	for _, assignment := range result.Assignments {
		rows = append(rows, models.Substitution{
			LeaveID:             leave.ID,
			TimetableEntryID:    stringPtr(assignment.Entry.ID),
			DayOfWeek:           assignment.Entry.Day.String(),
			Slot:                int(assignment.Entry.Slot),
			CourseID:            stringPtr(assignment.Entry.CourseID),
			ClassroomID:         stringPtr(assignment.Entry.RoomID),
			SubstituteTeacherID: assignment.Substitute.ID,
		})
		covered = append(covered, fmt.Sprintf("%s (%s)", assignment.Entry.Slot.Label(), assignment.Substitute.Name))
	}
	if len(rows) > 0 {
		if err = s.substitutions.CreateWithTx(ctx, tx, rows); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save substitutions")
		}
	}

	leave.Status = models.LeaveStatusApproved
	switch {
	case len(covered) > 0:
		leave.AdminResponse = stringPtr("Approved. Substitutions assigned: " + strings.Join(covered, ", "))
	case len(input.Affected) == 0:
		leave.AdminResponse = stringPtr(responseNoClasses)
	default:
		leave.AdminResponse = stringPtr(responseNoSubstitutes)
	}
	if err = s.leaves.UpdateDecision(ctx, tx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave request")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit leave decision")
	}

	s.metrics.ObserveSubstitutions(len(result.Assignments), len(result.Uncovered))
	s.logger.Info("leave approved",
		zap.String("leave_id", leave.ID),
		zap.String("day", day.String()),
		zap.Int("covered", len(result.Assignments)),
		zap.Int("uncovered", len(result.Uncovered)))

	details, listErr := s.substitutions.ListByLeave(ctx, leave.ID)
	if listErr != nil {
		s.logger.Warn("failed to load recorded substitutions", zap.String("leave_id", leave.ID), zap.Error(listErr))
		details = []models.SubstitutionDetail{}
	}
	return &models.LeaveDecision{
		Leave:         *leave,
		Covered:       len(result.Assignments),
		Uncovered:     len(result.Uncovered),
		Substitutions: details,
	}, nil
}

// Reject declines a pending leave.
func (s *LeaveService) Reject(ctx context.Context, id string) (leave *models.LeaveRequest, err error) {
	tx, err := s.leaves.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	leave, err = s.pendingLeave(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	leave.Status = models.LeaveStatusRejected
	leave.AdminResponse = stringPtr(responseDeclined)
	if err = s.leaves.UpdateDecision(ctx, tx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave request")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit leave decision")
	}
	s.logger.Info("leave rejected", zap.String("leave_id", leave.ID))
	return leave, nil
}

// Substitutions lists the substitutions in force on a date.
func (s *LeaveService) Substitutions(ctx context.Context, query dto.SubstitutionQuery) ([]models.SubstitutionDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution query")
	}
	date, err := time.Parse(leaveDateLayout, query.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	subs, err := s.substitutions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitutions")
	}
	return subs, nil
}

func (s *LeaveService) pendingLeave(ctx context.Context, tx *sqlx.Tx, id string) (*models.LeaveRequest, error) {
	leave, err := s.leaves.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, lookupError(err, "leave request")
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("leave request already %s", strings.ToLower(string(leave.Status))))
	}
	return leave, nil
}

func (s *LeaveService) substitutionInput(ctx context.Context, tx *sqlx.Tx, leave *models.LeaveRequest, day scheduler.Day) (scheduler.SubstitutionInput, error) {
	details, err := s.timetable.ListDetailedWithTx(ctx, tx, models.TimetableFilter{DayOfWeek: day.String()})
	if err != nil {
		return scheduler.SubstitutionInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	dayEntries, err := toEngineEntries(details)
	if err != nil {
		return scheduler.SubstitutionInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is invalid")
	}
	var affected []scheduler.Entry
	for _, entry := range dayEntries {
		if entry.TeacherID == leave.TeacherID {
			affected = append(affected, entry)
		}
	}

	onLeave, err := s.leaves.ListApprovedTeacherIDs(ctx, tx, leave.LeaveDate)
	if err != nil {
		return scheduler.SubstitutionInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved leaves")
	}
	existing, err := s.substitutions.ListByDateWithTx(ctx, tx, leave.LeaveDate)
	if err != nil {
		return scheduler.SubstitutionInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitutions")
	}
	covering := make([]scheduler.BusySubstitute, 0, len(existing))
	for _, sub := range existing {
		covering = append(covering, scheduler.BusySubstitute{Slot: scheduler.Slot(sub.Slot), TeacherID: sub.SubstituteTeacherID})
	}

	teachers, err := s.teachers.List(ctx, models.TeacherFilter{})
	if err != nil {
		return scheduler.SubstitutionInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	return scheduler.SubstitutionInput{
		LeaveTeacherID: leave.TeacherID,
		Affected:       affected,
		DayEntries:     dayEntries,
		Covering:       covering,
		OnLeave:        onLeave,
		Teachers:       toEngineTeachers(teachers),
	}, nil
}

func (s *LeaveService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func stringPtr(v string) *string {
	return &v
}
