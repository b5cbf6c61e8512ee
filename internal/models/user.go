package models

import "time"

type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Role           string     `json:"role"` // member, admin
	Bio            string     `json:"bio,omitempty"`
	ImageURL       string     `json:"image,omitempty"`
	IsBanned       bool       `json:"is_banned"`
	BanReason      string     `json:"ban_reason,omitempty"`
	BannedUntil    *time.Time `json:"banned_until,omitempty"`
	IsPermanentBan bool       `json:"is_permanent_ban"`
	BorrowCount    int        `json:"borrow_count"`
	ReviewCount    int        `json:"review_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BanActive reports whether the ban still applies at the given time.
// A permanent ban never expires; a timed ban expires once banned_until passes.
func (u *User) BanActive(now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	if u.IsPermanentBan {
		return true
	}
	if u.BannedUntil == nil {
		return true
	}
	return now.Before(*u.BannedUntil)
}

// BanRemaining returns time left on a timed ban. Non-positive once expired,
// zero for permanent bans and for users who are not banned at all.
func (u *User) BanRemaining(now time.Time) time.Duration {
	if !u.IsBanned || u.IsPermanentBan || u.BannedUntil == nil {
		return 0
	}
	return u.BannedUntil.Sub(now)
}
