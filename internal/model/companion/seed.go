package companion

// SeedCategories provides the default browsing categories.
func SeedCategories() []Category {
	return []Category{
		{ID: "famous-people", Name: "Famous People"},
		{ID: "movies-tv", Name: "Movies & TV"},
		{ID: "musicians", Name: "Musicians"},
		{ID: "games", Name: "Games"},
		{ID: "animals", Name: "Animals"},
		{ID: "philosophy", Name: "Philosophy"},
		{ID: "scientists", Name: "Scientists"},
	}
}
