package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type stubLeaveStore struct {
	*txProviderMock
	leaves   map[string]*models.LeaveRequest
	approved []string
	created  []*models.LeaveRequest
	updated  []models.LeaveRequest
	filter   models.LeaveFilter
}

func (s *stubLeaveStore) Create(ctx context.Context, leave *models.LeaveRequest) error {
	leave.ID = "leave-new"
	s.created = append(s.created, leave)
	return nil
}

func (s *stubLeaveStore) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.LeaveRequest, error) {
	leave, ok := s.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *leave
	return &cp, nil
}

func (s *stubLeaveStore) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequestDetail, error) {
	s.filter = filter
	return []models.LeaveRequestDetail{}, nil
}

func (s *stubLeaveStore) ListApprovedTeacherIDs(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]string, error) {
	return s.approved, nil
}

func (s *stubLeaveStore) UpdateDecision(ctx context.Context, exec sqlx.ExtContext, leave *models.LeaveRequest) error {
	s.updated = append(s.updated, *leave)
	return nil
}

type stubSubstitutionStore struct {
	existing []models.SubstitutionDetail
	created  []models.Substitution
}

func (s *stubSubstitutionStore) ListByDate(ctx context.Context, date time.Time) ([]models.SubstitutionDetail, error) {
	return s.existing, nil
}

func (s *stubSubstitutionStore) ListByDateWithTx(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.SubstitutionDetail, error) {
	return s.existing, nil
}

func (s *stubSubstitutionStore) ListByLeave(ctx context.Context, leaveID string) ([]models.SubstitutionDetail, error) {
	details := make([]models.SubstitutionDetail, 0, len(s.created))
	for _, sub := range s.created {
		details = append(details, models.SubstitutionDetail{Substitution: sub})
	}
	return details, nil
}

func (s *stubSubstitutionStore) CreateWithTx(ctx context.Context, tx *sqlx.Tx, subs []models.Substitution) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	s.created = append(s.created, subs...)
	return nil
}

type stubDayTimetable struct {
	entries []models.TimetableEntryDetail
	filter  models.TimetableFilter
	tx      *sqlx.Tx
}

func (s *stubDayTimetable) ListDetailedWithTx(ctx context.Context, tx *sqlx.Tx, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	s.tx = tx
	return s.ListDetailed(ctx, filter)
}

func (s *stubDayTimetable) ListDetailed(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	s.filter = filter
	var out []models.TimetableEntryDetail
	for _, entry := range s.entries {
		if filter.DayOfWeek == "" || entry.DayOfWeek == filter.DayOfWeek {
			out = append(out, entry)
		}
	}
	return out, nil
}

func dayEntry(id, day string, slot int, teacherID, teacherName string) models.TimetableEntryDetail {
	return models.TimetableEntryDetail{
		TimetableEntry: models.TimetableEntry{
			ID:           id,
			DayOfWeek:    day,
			Slot:         slot,
			DepartmentID: "cse",
			CourseID:     "cs101",
			TeacherID:    teacherID,
			ClassroomID:  "room-101",
		},
		CourseName:    "Algorithms",
		CourseType:    "Theory",
		TeacherName:   teacherName,
		ClassroomName: "Room 101",
	}
}

type leaveFixture struct {
	svc       *LeaveService
	leaves    *stubLeaveStore
	subs      *stubSubstitutionStore
	timetable *stubDayTimetable
	mock      sqlmock.Sqlmock
}

func newLeaveFixture(t *testing.T) *leaveFixture {
	t.Helper()
	provider, mock := newTxProviderMock(t)
	leaves := &stubLeaveStore{txProviderMock: provider, leaves: map[string]*models.LeaveRequest{}}
	subs := &stubSubstitutionStore{}
	timetable := &stubDayTimetable{}
	teachers := &stubTeacherReader{items: []models.Teacher{
		{ID: "smith", Name: "Dr. Smith"},
		{ID: "jones", Name: "Dr. Jones"},
	}}
	svc := NewLeaveService(leaves, subs, timetable, teachers, nil, nil, nil, 7)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	return &leaveFixture{svc: svc, leaves: leaves, subs: subs, timetable: timetable, mock: mock}
}

func (f *leaveFixture) pending(id, teacherID, date string) {
	day, _ := time.Parse(leaveDateLayout, date)
	f.leaves.leaves[id] = &models.LeaveRequest{ID: id, TeacherID: teacherID, LeaveDate: day, Reason: "Conference", Status: models.LeaveStatusPending}
}

func teacherActor(id string) *models.JWTClaims {
	return &models.JWTClaims{Role: models.RoleTeacher, TeacherID: id}
}

func TestLeaveServiceRequest(t *testing.T) {
	f := newLeaveFixture(t)

	leave, err := f.svc.Request(context.Background(), teacherActor("smith"), dto.CreateLeaveRequest{LeaveDate: "2026-10-18", Reason: " Family event "})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, leave.Status)
	assert.Equal(t, "Family event", leave.Reason)
	assert.Equal(t, "smith", leave.TeacherID)
	require.Len(t, f.leaves.created, 1)
}

func TestLeaveServiceRequestRules(t *testing.T) {
	f := newLeaveFixture(t)

	_, err := f.svc.Request(context.Background(), &models.JWTClaims{Role: models.RoleAdmin}, dto.CreateLeaveRequest{LeaveDate: "2026-10-19", Reason: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Request(context.Background(), teacherActor("smith"), dto.CreateLeaveRequest{LeaveDate: "2026-10-15", Reason: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "past")

	_, err = f.svc.Request(context.Background(), teacherActor("smith"), dto.CreateLeaveRequest{LeaveDate: "16/10/2026", Reason: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Request(context.Background(), teacherActor("smith"), dto.CreateLeaveRequest{LeaveDate: "2026-10-16", Reason: "x"})
	require.NoError(t, err)
}

func TestLeaveServiceApproveSundayAutoRejects(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-18")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	decision, err := f.svc.Approve(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusRejected, decision.Leave.Status)
	assert.Equal(t, "Conference (Auto-Rejected: Sunday)", decision.Leave.Reason)
	require.NotNil(t, decision.Leave.AdminResponse)
	assert.Equal(t, "Leave rejected automatically as it falls on a Sunday.", *decision.Leave.AdminResponse)
	assert.Empty(t, f.subs.created)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLeaveServiceApproveAssignsSubstitutes(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-19")
	f.timetable.entries = []models.TimetableEntryDetail{
		dayEntry("e1", "Monday", 0, "smith", "Dr. Smith"),
		dayEntry("e2", "Monday", 1, "smith", "Dr. Smith"),
		dayEntry("e3", "Monday", 1, "jones", "Dr. Jones"),
		dayEntry("e4", "Tuesday", 0, "smith", "Dr. Smith"),
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	decision, err := f.svc.Approve(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, "Monday", f.timetable.filter.DayOfWeek)
	assert.NotNil(t, f.timetable.tx, "day timetable must be read inside the approval transaction")
	assert.Equal(t, models.LeaveStatusApproved, decision.Leave.Status)
	assert.Equal(t, 1, decision.Covered)
	assert.Equal(t, 1, decision.Uncovered)
	require.Len(t, f.subs.created, 1)
	created := f.subs.created[0]
	require.NotNil(t, created.TimetableEntryID)
	assert.Equal(t, "e1", *created.TimetableEntryID)
	assert.Equal(t, "Monday", created.DayOfWeek)
	assert.Equal(t, 0, created.Slot)
	require.NotNil(t, created.CourseID)
	assert.Equal(t, "cs101", *created.CourseID)
	require.NotNil(t, created.ClassroomID)
	assert.Equal(t, "room-101", *created.ClassroomID)
	assert.Equal(t, "jones", f.subs.created[0].SubstituteTeacherID)
	assert.Equal(t, "leave-1", f.subs.created[0].LeaveID)
	require.NotNil(t, decision.Leave.AdminResponse)
	assert.Equal(t, "Approved. Substitutions assigned: 10:00-10:50 (Dr. Jones)", *decision.Leave.AdminResponse)
	require.Len(t, decision.Substitutions, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLeaveServiceApproveRespectsExistingCover(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-19")
	f.timetable.entries = []models.TimetableEntryDetail{dayEntry("e1", "Monday", 0, "smith", "Dr. Smith")}
	f.subs.existing = []models.SubstitutionDetail{{Substitution: models.Substitution{SubstituteTeacherID: "jones", DayOfWeek: "Monday", Slot: 0}}}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	decision, err := f.svc.Approve(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, 0, decision.Covered)
	assert.Equal(t, "Approved, but no substitutes were available.", *decision.Leave.AdminResponse)
	assert.Empty(t, f.subs.created)
}

func TestLeaveServiceApproveSkipsTeachersOnLeave(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-19")
	f.timetable.entries = []models.TimetableEntryDetail{dayEntry("e1", "Monday", 2, "smith", "Dr. Smith")}
	f.leaves.approved = []string{"jones"}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	decision, err := f.svc.Approve(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Uncovered)
	assert.Equal(t, "Approved, but no substitutes were available.", *decision.Leave.AdminResponse)
}

func TestLeaveServiceApproveWithoutClasses(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-20")
	f.timetable.entries = []models.TimetableEntryDetail{dayEntry("e1", "Monday", 0, "smith", "Dr. Smith")}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	decision, err := f.svc.Approve(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, decision.Leave.Status)
	assert.Equal(t, "Approved. No classes found for this day.", *decision.Leave.AdminResponse)
}

func TestLeaveServiceDecisionRequiresPending(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-19")
	f.leaves.leaves["leave-1"].Status = models.LeaveStatusApproved
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Approve(context.Background(), "leave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Reject(context.Background(), "leave-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Approve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLeaveServiceReject(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending("leave-1", "smith", "2026-10-19")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	leave, err := f.svc.Reject(context.Background(), "leave-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusRejected, leave.Status)
	assert.Equal(t, "Your leave request was declined by the administrator.", *leave.AdminResponse)
	require.Len(t, f.leaves.updated, 1)
}

func TestLeaveServiceListScopesTeachers(t *testing.T) {
	f := newLeaveFixture(t)

	_, err := f.svc.List(context.Background(), teacherActor("smith"), dto.LeaveQuery{Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, "smith", f.leaves.filter.TeacherID)
	require.NotNil(t, f.leaves.filter.Status)
	assert.Equal(t, models.LeaveStatusPending, *f.leaves.filter.Status)

	_, err = f.svc.List(context.Background(), &models.JWTClaims{Role: models.RoleAdmin}, dto.LeaveQuery{})
	require.NoError(t, err)
	assert.Empty(t, f.leaves.filter.TeacherID)
	assert.Nil(t, f.leaves.filter.Status)
}

func TestLeaveServiceSubstitutionsValidatesDate(t *testing.T) {
	f := newLeaveFixture(t)

	_, err := f.svc.Substitutions(context.Background(), dto.SubstitutionQuery{Date: "not-a-date"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	subs, err := f.svc.Substitutions(context.Background(), dto.SubstitutionQuery{Date: "2026-10-19"})
	require.NoError(t, err)
	assert.Empty(t, subs)
}
