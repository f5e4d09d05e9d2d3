package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account. Its ID is the UserIdentity carried in tokens
// and used as the presence key.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id" bson:"_id"`
	FullName  string    `gorm:"type:text;not null" json:"full_name" bson:"full_name"`
	Email     string    `gorm:"type:text;not null;uniqueIndex" json:"email" bson:"email"`
	Password  string    `gorm:"type:text;not null" json:"-" bson:"password"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url" bson:"avatar_url"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// EnsureIdentity fills ID and CreatedAt when they are still zero.
func (u *User) EnsureIdentity(now time.Time) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
}

// BeforeCreate is the GORM hook that assigns a UUID before insert.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.EnsureIdentity(time.Now())
	return
}
