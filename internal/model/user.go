package model

import "time"

// VerificationStatus 只能向前推进："" -> pending -> approved
type VerificationStatus string

const (
	VerificationUnset    VerificationStatus = ""
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
)

// UserProfile 用户资料，key: user:{id}
type UserProfile struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"userId"`
	Email              string             `json:"email"`
	FullName           string             `json:"fullName"`
	DOB                string             `json:"dob,omitempty"`
	CollegeName        string             `json:"collegeName,omitempty"`
	CollegePlace       string             `json:"collegePlace,omitempty"`
	Department         string             `json:"department,omitempty"`
	Year               string             `json:"year,omitempty"`
	Bio                string             `json:"bio,omitempty"`
	ProfilePicture     string             `json:"profilePicture,omitempty"`
	IDCardPath         string             `json:"idCardPath,omitempty"`
	Verified           bool               `json:"verified"`
	VerificationStatus VerificationStatus `json:"verificationStatus,omitempty"`
	ProfileCompleted   bool               `json:"profileCompleted"`

	CreatedAt               time.Time  `json:"createdAt"`
	VerificationSubmittedAt *time.Time `json:"verificationSubmittedAt,omitempty"`
	VerifiedAt              *time.Time `json:"verifiedAt,omitempty"`
	ProfileCompletedAt      *time.Time `json:"profileCompletedAt,omitempty"`
}

// PublicProfile 对其他用户可见的字段
type PublicProfile struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	FullName       string `json:"fullName"`
	Department     string `json:"department,omitempty"`
	Year           string `json:"year,omitempty"`
	CollegeName    string `json:"collegeName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Verified       bool   `json:"verified"`
}

func (u *UserProfile) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		UserID:         u.UserID,
		FullName:       u.FullName,
		Department:     u.Department,
		Year:           u.Year,
		CollegeName:    u.CollegeName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Verified:       u.Verified,
	}
}

// Snapshot 生成发帖时冗余的作者信息
func (u *UserProfile) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{
		AuthorName:           u.FullName,
		AuthorDepartment:     u.Department,
		AuthorProfilePicture: u.ProfilePicture,
		AuthorCollege:        u.CollegeName,
	}
}

// Account 身份凭据，key: account:{email}
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
