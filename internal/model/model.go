package model

import "time"

// Contact is the data structure for a person that we know. Every contact belongs to exactly
// one owner. Email, Phone and PhotoURL are optional: nil means absent, which is not the same
// thing as present and empty.
type Contact struct {
	Id        string    `json:"id"                  db:"id"`
	OwnerId   string    `json:"user_id"             db:"user_id"`
	Name      string    `json:"name"                db:"name"`
	Email     *string   `json:"email,omitempty"     db:"email"`
	Phone     *string   `json:"phone,omitempty"     db:"phone"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"photo_url"`
	CreatedAt time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"          db:"updated_at"`
}

// ContactPatch carries the fields of a partial update. Only non-nil fields are changed.
type ContactPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

// IsEmpty reports whether the patch would not change anything.
func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.PhotoURL == nil
}
