package muses

import "strings"

var defaultNewTags = []string{"NEW", "Rookie"}

func placeholderInfo() PersonInfo {
	return PersonInfo{
		Birthdate:   "Unknown",
		MBTI:        "????",
		Description: "Newly added to the archive.",
	}
}

// CreateMuse prepends a freshly created record to the collection and returns
// the new collection together with the assigned identifier. A blank name or
// image declines the creation: the input collection is returned unchanged and
// the identifier is empty. The identifier comes from the injected provider so
// the function stays deterministic under test.
func CreateMuse(collection Collection, ids IDProvider, name, image string, mainCategory MainCategory, subCategory SubCategory) (Collection, string) {
	trimmedName := strings.TrimSpace(name)
	trimmedImage := strings.TrimSpace(image)
	if trimmedName == "" || trimmedImage == "" {
		return collection, ""
	}

	id, err := ids.NewID()
	if err != nil || id == "" {
		return collection, ""
	}

	record := Muse{
		ID:            id,
		Name:          trimmedName,
		MainCategory:  mainCategory,
		SubCategory:   subCategory,
		MainImage:     trimmedImage,
		GalleryImages: []GalleryItem{},
		Tags:          append([]string(nil), defaultNewTags...),
		Info:          placeholderInfo(),
	}

	next := make(Collection, 0, len(collection)+1)
	next = append(next, record)
	next = append(next, collection...)
	return next, id
}

// ReplaceMuse swaps the record matching updated.ID for the supplied value.
// An unknown identifier is a silent no-op: the input collection is returned
// unchanged. This is the single replace-by-id write path shared by edits,
// gallery mutations, and sync ticks.
func ReplaceMuse(collection Collection, updated Muse) Collection {
	index := collection.IndexOf(updated.ID)
	if index < 0 {
		return collection
	}
	next := append(Collection(nil), collection...)
	next[index] = updated
	return next
}

// DeleteMuse removes the record with the given identifier. An unknown
// identifier is a silent no-op. Callers holding a selection reference to the
// deleted record must clear it themselves.
func DeleteMuse(collection Collection, id string) Collection {
	index := collection.IndexOf(id)
	if index < 0 {
		return collection
	}
	next := make(Collection, 0, len(collection)-1)
	next = append(next, collection[:index]...)
	next = append(next, collection[index+1:]...)
	return next
}

// AppendGalleryItem prepends a zero-engagement gallery entry to the target
// record, keeping most-recent-first ordering. An unknown identifier is a
// silent no-op.
func AppendGalleryItem(collection Collection, id, url string) Collection {
	index := collection.IndexOf(id)
	if index < 0 {
		return collection
	}
	record := collection[index].Clone()
	gallery := make([]GalleryItem, 0, len(record.GalleryImages)+1)
	gallery = append(gallery, GalleryItem{URL: url})
	gallery = append(gallery, record.GalleryImages...)
	record.GalleryImages = gallery
	return ReplaceMuse(collection, record)
}

// RemoveGalleryItem drops the gallery entry at the given position. An unknown
// identifier or an out-of-range index is a silent no-op.
func RemoveGalleryItem(collection Collection, id string, galleryIndex int) Collection {
	index := collection.IndexOf(id)
	if index < 0 {
		return collection
	}
	record := collection[index].Clone()
	if galleryIndex < 0 || galleryIndex >= len(record.GalleryImages) {
		return collection
	}
	gallery := make([]GalleryItem, 0, len(record.GalleryImages)-1)
	gallery = append(gallery, record.GalleryImages[:galleryIndex]...)
	gallery = append(gallery, record.GalleryImages[galleryIndex+1:]...)
	record.GalleryImages = gallery
	return ReplaceMuse(collection, record)
}
