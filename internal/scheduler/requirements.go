package scheduler

// Requirement is one session instance that must be placed somewhere in the week.
type Requirement struct {
	DeptID     string
	CourseID   string
	CourseName string
	// TeacherID is empty for activity classes without an allocation.
	TeacherID string
	Type      CourseType
	Duration  int
}

// ExpandRequirements turns every course's weekly hours into atomic requirements.
// Courses without an allocated teacher are skipped unless they are activity classes.
func ExpandRequirements(departments []Department) []Requirement {
	var reqs []Requirement
	for _, dept := range departments {
		for _, course := range dept.Courses {
			teacherID := ""
			if len(course.TeacherIDs) > 0 {
				teacherID = course.TeacherIDs[0]
			}
			if teacherID == "" && course.Type != ActivityClass {
				continue
			}
			for i := 0; i < course.HoursPerWeek; i++ {
				reqs = append(reqs, Requirement{
					DeptID:     dept.ID,
					CourseID:   course.ID,
					CourseName: course.Name,
					TeacherID:  teacherID,
					Type:       course.Type,
					Duration:   course.Type.Duration(),
				})
			}
		}
	}
	return reqs
}

// TotalDuration is the number of entries a successful run produces for reqs.
func TotalDuration(reqs []Requirement) int {
	total := 0
	for _, req := range reqs {
		total += req.Duration
	}
	return total
}
