package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile представляет профиль пользователя
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email,omitempty"`
	Nickname     string    `json:"nickname"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile возвращает копию профиля без приватных полей (email виден только владельцу)
func (p *Profile) PublicProfile() *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:        p.ID,
		Nickname:  p.Nickname,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
