package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth Tables
// ============================================================

// Operator represents operators table
type Operator struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	CenterID  uint           `gorm:"not null;index" json:"center_id"`
	Role      string         `gorm:"size:20;default:'OPERATOR'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Center ServiceCenter `gorm:"foreignKey:CenterID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Operator) TableName() string {
	return "operators"
}

// OperatorResponse DTO
type OperatorResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CenterID  uint      `json:"center_id"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *Operator) ToResponse() *OperatorResponse {
	return &OperatorResponse{
		ID:        o.ID,
		Username:  o.Username,
		CenterID:  o.CenterID,
		Role:      o.Role,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ServiceCenter{},
		&Participant{},
		&Operator{},
		&Token{},
	)
}
