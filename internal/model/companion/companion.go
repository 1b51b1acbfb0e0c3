package companion

import "time"

// Companion is an authored persona definition driving one
// conversational character. Write access is limited to OwnerID; any
// authenticated caller may read it and chat with it.
type Companion struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions"`
	Seed         string    `json:"seed"`
	ImageRef     string    `json:"imageRef"`
	CategoryID   string    `json:"categoryId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Category groups companions for browsing. Reference data only; its
// lifecycle is managed outside this service.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
