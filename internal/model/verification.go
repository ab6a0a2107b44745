package model

import "time"

// VerificationRecord 学生认证审计记录，key: verification:{userId}
type VerificationRecord struct {
	UserID       string             `json:"userId"`
	Status       VerificationStatus `json:"status"`
	FullName     string             `json:"fullName,omitempty"`
	DOB          string             `json:"dob,omitempty"`
	CollegeName  string             `json:"collegeName,omitempty"`
	CollegePlace string             `json:"collegePlace,omitempty"`
	IDCardPath   string             `json:"idCardPath,omitempty"`
	SubmittedAt  time.Time          `json:"submittedAt"`
	// ReviewDueAt 持久化的审核到期时间，由 ReviewWorker 扫描处理
	ReviewDueAt time.Time  `json:"reviewDueAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
}

// DueForReview pending 且已到期
func (r *VerificationRecord) DueForReview(now time.Time) bool {
	return r.Status == VerificationPending && !r.ReviewDueAt.After(now)
}
