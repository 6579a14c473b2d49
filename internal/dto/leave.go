package dto

// CreateLeaveRequest asks for a day off. LeaveDate uses YYYY-MM-DD.
type CreateLeaveRequest struct {
	LeaveDate string `json:"leave_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

// LeaveQuery filters leave listings.
type LeaveQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=Pending Approved Rejected"`
}

// SubstitutionQuery selects the date whose substitutions are listed.
type SubstitutionQuery struct {
	Date string `form:"date" validate:"required,datetime=2006-01-02"`
}
