package muses

import (
	"errors"
	"fmt"
	"strings"
)

// MainCategory partitions the archive feed into its two top-level groups.
type MainCategory string

const (
	// MainCategoryCelebrity covers idols, actors, and other entertainers.
	MainCategoryCelebrity MainCategory = "Celebrity"
	// MainCategoryInfluencer covers platform-native creators.
	MainCategoryInfluencer MainCategory = "Influencer"
)

// SubCategory refines a record below its main category. Sub categories are
// not cross-validated against the main category: any pairing is accepted and
// stored as-is.
type SubCategory string

const (
	SubCategoryKPopGroup  SubCategory = "K-Pop Group"
	SubCategoryActor      SubCategory = "Actor"
	SubCategorySoloArtist SubCategory = "Solo Artist"
	SubCategoryYouTube    SubCategory = "YouTube"
	SubCategoryInstagram  SubCategory = "Instagram"
	SubCategoryTwitch     SubCategory = "Twitch"
	SubCategoryTikTok     SubCategory = "TikTok"
)

// CategoryFilter selects the visible slice of the archive feed.
type CategoryFilter string

// CategoryFilterAll is the sentinel filter that leaves the feed unfiltered.
const CategoryFilterAll CategoryFilter = "ALL"

const maxIdentifierLength = 190

var (
	// ErrInvalidMuseID indicates that a record identifier is empty or exceeds storage bounds.
	ErrInvalidMuseID = errors.New("muses: invalid muse id")
	// ErrUnknownMainCategory indicates an unrecognized main category label.
	ErrUnknownMainCategory = errors.New("muses: unknown main category")
	// ErrUnknownSubCategory indicates an unrecognized sub category label.
	ErrUnknownSubCategory = errors.New("muses: unknown sub category")
	// ErrUnknownCategoryFilter indicates an unrecognized feed filter label.
	ErrUnknownCategoryFilter = errors.New("muses: unknown category filter")
)

// MuseID represents a validated record identifier.
type MuseID string

// NewMuseID validates raw input and returns a MuseID.
func NewMuseID(rawInput string) (MuseID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidMuseID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidMuseID, maxIdentifierLength)
	}
	return MuseID(trimmed), nil
}

// String returns the underlying string identifier.
func (id MuseID) String() string {
	return string(id)
}

// ParseMainCategory resolves a raw label to a MainCategory.
func ParseMainCategory(value string) (MainCategory, error) {
	switch strings.TrimSpace(value) {
	case string(MainCategoryCelebrity):
		return MainCategoryCelebrity, nil
	case string(MainCategoryInfluencer):
		return MainCategoryInfluencer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMainCategory, value)
	}
}

// ParseSubCategory resolves a raw label to a SubCategory.
func ParseSubCategory(value string) (SubCategory, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range []SubCategory{
		SubCategoryKPopGroup,
		SubCategoryActor,
		SubCategorySoloArtist,
		SubCategoryYouTube,
		SubCategoryInstagram,
		SubCategoryTwitch,
		SubCategoryTikTok,
	} {
		if trimmed == string(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSubCategory, value)
}

// ParseCategoryFilter resolves a raw label to a feed filter. An empty value
// defaults to the unfiltered sentinel.
func ParseCategoryFilter(value string) (CategoryFilter, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, string(CategoryFilterAll)) {
		return CategoryFilterAll, nil
	}
	mainCategory, err := ParseMainCategory(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategoryFilter, value)
	}
	return CategoryFilter(mainCategory), nil
}

// GalleryItem is one entry in a record's photo gallery. Engagement counts are
// cosmetic display values, never derived from real activity.
type GalleryItem struct {
	URL      string `json:"url"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// PersonInfo carries the free-text profile fields of a record. Birthdate is
// conventionally an ISO date string but is stored unvalidated.
type PersonInfo struct {
	Birthdate   string   `json:"birthdate"`
	Height      string   `json:"height,omitempty"`
	MBTI        string   `json:"mbti,omitempty"`
	Hobbies     []string `json:"hobbies,omitempty"`
	Description string   `json:"description"`
}

// Muse models one archived profile. The JSON field names are the durable
// snapshot format and must stay stable across releases; a breaking change
// here requires bumping the snapshot slot key instead of migrating payloads.
type Muse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	MainCategory  MainCategory  `json:"mainCategory"`
	SubCategory   SubCategory   `json:"subCategory"`
	GroupName     string        `json:"groupName,omitempty"`
	PlatformName  string        `json:"platformName,omitempty"`
	MainImage     string        `json:"mainImage"`
	GalleryImages []GalleryItem `json:"galleryImages"`
	Tags          []string      `json:"tags"`
	Info          PersonInfo    `json:"info"`
	InstagramURL  string        `json:"instagramUrl,omitempty"`
}

// Clone returns a deep copy of the record.
func (m Muse) Clone() Muse {
	duplicate := m
	if m.GalleryImages != nil {
		duplicate.GalleryImages = append([]GalleryItem(nil), m.GalleryImages...)
	}
	if m.Tags != nil {
		duplicate.Tags = append([]string(nil), m.Tags...)
	}
	if m.Info.Hobbies != nil {
		duplicate.Info.Hobbies = append([]string(nil), m.Info.Hobbies...)
	}
	return duplicate
}

// Collection is the full ordered set of archived records.
type Collection []Muse

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	duplicate := make(Collection, len(c))
	for index, record := range c {
		duplicate[index] = record.Clone()
	}
	return duplicate
}

// IndexOf returns the position of the record with the given identifier, or -1.
func (c Collection) IndexOf(id string) int {
	for index, record := range c {
		if record.ID == id {
			return index
		}
	}
	return -1
}
