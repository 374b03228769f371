package dto

// CategoryPosition is one entry of the reorder request body.
type CategoryPosition struct {
	CategoryID  int64 `json:"category_id" binding:"required"`
	NewPosition int   `json:"new_position"`
}

// DragEndDTO names the dragged item and the item it was dropped over.
type DragEndDTO struct {
	ActiveID int64 `json:"active_id" binding:"required"`
	OverID   int64 `json:"over_id" binding:"required"`
}
