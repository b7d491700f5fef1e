package writing

import "time"

// ReferenceDocument is author-uploaded material (setting notes, research)
// searched when assembling card-generation context.
type ReferenceDocument struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Filename  string    `json:"filename" db:"filename"`
	Content   string    `json:"content,omitempty" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
