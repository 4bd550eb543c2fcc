package model

import "time"

// List groups tasks by area (work, health, study, etc.).
type List struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_list_name,unique"`
	Name      string `gorm:"index:idx_user_list_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:ListID"`
}

// Label is a free-form tag shared by any number of tasks.
type Label struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_label_name,unique"`
	Name      string `gorm:"index:idx_user_label_name,unique"`
	CreatedAt time.Time
}
