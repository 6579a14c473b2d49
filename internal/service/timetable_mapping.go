package service

import (
	"fmt"

	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/scheduler"
)

func buildSnapshot(catalog []models.DepartmentWithCourses, teachers []models.Teacher, rooms []models.Classroom) (scheduler.Snapshot, error) {
	snap := scheduler.Snapshot{
		Departments: make([]scheduler.Department, 0, len(catalog)),
		Teachers:    toEngineTeachers(teachers),
		Rooms:       toEngineRooms(rooms),
	}
	for _, dept := range catalog {
		engineDept := scheduler.Department{ID: dept.ID, Code: dept.Code}
		for _, course := range dept.Courses {
			courseType, err := scheduler.ParseCourseType(course.Type)
			if err != nil {
				return scheduler.Snapshot{}, fmt.Errorf("course %s: %w", course.Code, err)
			}
			teacherIDs := make([]string, 0, len(course.Allocations))
			for _, allocation := range course.Allocations {
				teacherIDs = append(teacherIDs, allocation.TeacherID)
			}
			engineDept.Courses = append(engineDept.Courses, scheduler.Course{
				ID:           course.ID,
				Name:         course.Name,
				Type:         courseType,
				HoursPerWeek: course.HoursPerWeek,
				TeacherIDs:   teacherIDs,
			})
		}
		snap.Departments = append(snap.Departments, engineDept)
	}
	return snap, nil
}

func toEngineTeachers(teachers []models.Teacher) []scheduler.Teacher {
	result := make([]scheduler.Teacher, 0, len(teachers))
	for _, teacher := range teachers {
		deptID := ""
		if teacher.DepartmentID != nil {
			deptID = *teacher.DepartmentID
		}
		result = append(result, scheduler.Teacher{
			ID:            teacher.ID,
			Name:          teacher.Name,
			DeptID:        deptID,
			WorkloadLimit: teacher.WorkloadLimit,
		})
	}
	return result
}

func toEngineRooms(rooms []models.Classroom) []scheduler.Room {
	result := make([]scheduler.Room, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, scheduler.Room{ID: room.ID, Name: room.Name, Type: scheduler.ParseRoomType(room.Type)})
	}
	return result
}

func toTimetableEntries(entries []scheduler.Entry) []models.TimetableEntry {
	rows := make([]models.TimetableEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.TimetableEntry{
			DayOfWeek:    entry.Day.String(),
			Slot:         int(entry.Slot),
			DepartmentID: entry.DeptID,
			CourseID:     entry.CourseID,
			TeacherID:    entry.TeacherID,
			ClassroomID:  entry.RoomID,
		})
	}
	return rows
}

func toEngineEntry(detail models.TimetableEntryDetail) (scheduler.Entry, error) {
	day, err := scheduler.ParseDay(detail.DayOfWeek)
	if err != nil {
		return scheduler.Entry{}, fmt.Errorf("entry %s: %w", detail.ID, err)
	}
	courseType, err := scheduler.ParseCourseType(detail.CourseType)
	if err != nil {
		return scheduler.Entry{}, fmt.Errorf("entry %s: %w", detail.ID, err)
	}
	return scheduler.Entry{
		ID:          detail.ID,
		Day:         day,
		Slot:        scheduler.Slot(detail.Slot),
		DeptID:      detail.DepartmentID,
		CourseID:    detail.CourseID,
		TeacherID:   detail.TeacherID,
		RoomID:      detail.ClassroomID,
		CourseType:  courseType,
		CourseName:  detail.CourseName,
		TeacherName: detail.TeacherName,
		RoomName:    detail.ClassroomName,
	}, nil
}

func toEngineEntries(details []models.TimetableEntryDetail) ([]scheduler.Entry, error) {
	entries := make([]scheduler.Entry, 0, len(details))
	for _, detail := range details {
		entry, err := toEngineEntry(detail)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func withSlotLabels(details []models.TimetableEntryDetail) []models.TimetableEntryDetail {
	for i := range details {
		details[i].SlotLabel = scheduler.Slot(details[i].Slot).Label()
	}
	return details
}
