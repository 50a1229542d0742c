package model

import (
	"time"
)

// Board 화이트보드 (영속 레코드)
type Board struct {
	ID         string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(255);not null;default:'Untitled Board'" json:"name"`
	OwnerID    *string    `gorm:"type:varchar(64);index" json:"owner_id,omitempty"`
	IsLocked   bool       `gorm:"default:false" json:"is_locked"`
	IsPublic   bool       `gorm:"default:true" json:"is_public"`
	CanvasData CanvasData `gorm:"type:jsonb;not null" json:"canvas_data"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Members  []BoardMember  `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Versions []BoardVersion `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// BoardMember 보드 협업 멤버
type BoardMember struct {
	BoardID  string    `gorm:"type:varchar(64);primaryKey" json:"board_id"`
	UserID   string    `gorm:"type:varchar(64);primaryKey;index" json:"user_id"`
	Role     string    `gorm:"type:varchar(20);not null;default:'editor'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (BoardMember) TableName() string {
	return "board_members"
}

// BoardVersion 보드 버전 히스토리
type BoardVersion struct {
	ID            string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	BoardID       string     `gorm:"type:varchar(64);not null;index" json:"board_id"`
	VersionNumber int        `gorm:"not null" json:"version_number"`
	CanvasData    CanvasData `gorm:"type:jsonb;not null" json:"-"`
	CreatedBy     *string    `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (BoardVersion) TableName() string {
	return "board_versions"
}
