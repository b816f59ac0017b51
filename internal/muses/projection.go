package muses

// Project derives the visible subsequence of the collection for a feed
// filter. The sentinel filter returns the collection unchanged; any other
// filter keeps records whose main category matches, preserving relative
// order. Pure and total: no filter value produces an error.
func Project(collection Collection, filter CategoryFilter) Collection {
	if filter == CategoryFilterAll {
		return collection
	}
	projected := make(Collection, 0, len(collection))
	for _, record := range collection {
		if record.MainCategory == MainCategory(filter) {
			projected = append(projected, record)
		}
	}
	return projected
}
