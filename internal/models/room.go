package models

// Room is a catalog entry shown on the landing and rooms pages.
// Prices are in minor units (cents).
type Room struct {
	ID            int64    `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Category      string   `yaml:"category" json:"category"`
	Image         string   `yaml:"image" json:"image"`
	Description   string   `yaml:"description" json:"description"`
	Amenities     []string `yaml:"amenities" json:"amenities,omitempty"`
	BasePrice     int64    `yaml:"base_price" json:"base_price"`
	OriginalPrice int64    `yaml:"original_price" json:"original_price,omitempty"`
	CleaningFee   int64    `yaml:"cleaning_fee" json:"cleaning_fee"`
	MaxGuests     int      `yaml:"max_guests" json:"max_guests"`
	SortOrder     int64    `yaml:"sort_order" json:"sort_order"`
	Featured      bool     `yaml:"featured" json:"featured"`
}

// HasDiscount reports whether the room is advertised below its original price.
func (r Room) HasDiscount() bool {
	return r.OriginalPrice > r.BasePrice
}
