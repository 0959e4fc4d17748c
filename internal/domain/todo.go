package domain

// Todo is the stored row of the todos table. ID is assigned by the store.
type Todo struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text;not null;default:''"`
	Completed   bool   `gorm:"not null;default:false"`
}

// TableName pins the table name used by every store backend.
func (Todo) TableName() string {
	return "todos"
}
