package models

type Category struct {
	ID            int64  `json:"id" bson:"_id"`
	NameEN        string `json:"name_en" bson:"nameEn"`
	NameRO        string `json:"name_ro" bson:"nameRo"`
	Slug          string `json:"slug" bson:"slug"`
	DescriptionEN string `json:"description_en,omitempty" bson:"descriptionEn,omitempty"`
	DescriptionRO string `json:"description_ro,omitempty" bson:"descriptionRo,omitempty"`
	ImageURL      string `json:"image_url,omitempty" bson:"imageUrl,omitempty"`
	SortOrder     int    `json:"sort_order" bson:"sortOrder"`
}

// ReorderKey identifies the category on the reorder board.
func (c Category) ReorderKey() int64 {
	return c.ID
}
