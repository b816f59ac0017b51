package muses

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMissingIDProvider indicates the service was constructed without an id source.
	ErrMissingIDProvider = errors.New("muses: id provider is required")
	// ErrNameRequired indicates a create request with a blank display name.
	ErrNameRequired = errors.New("muses: name is required")
	// ErrImageRequired indicates a create request with a blank main image.
	ErrImageRequired = errors.New("muses: main image is required")
	// ErrMuseNotFound indicates the requested record is not in the archive.
	ErrMuseNotFound = errors.New("muses: muse not found")
	// ErrNotConfirmed indicates a destructive operation without a granted confirmation.
	ErrNotConfirmed = errors.New("muses: confirmation declined")
	// ErrIDGenerationFailed indicates the id provider could not assign a record id.
	ErrIDGenerationFailed = errors.New("muses: id generation failed")
)

// ServiceConfig bundles the dependencies of the archive service.
type ServiceConfig struct {
	Store      *Store
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service exposes the archive operations over the record store. Destructive
// operations take a ConfirmFunc capability; the service never prompts.
type Service struct {
	store  *Store
	ids    IDProvider
	logger *zap.Logger

	// onDelete lets the detail layer clear a dangling selection when its
	// record disappears.
	onDelete func(museID string)
}

// NewService constructs the archive service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.IDProvider == nil {
		return nil, ErrMissingIDProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  cfg.Store,
		ids:    cfg.IDProvider,
		logger: logger,
	}, nil
}

// SetDeleteHook registers a callback run after a record is deleted.
func (s *Service) SetDeleteHook(hook func(museID string)) {
	s.onDelete = hook
}

// Feed returns the projected view of the archive for a category filter.
func (s *Service) Feed(filter CategoryFilter) Collection {
	return Project(s.store.Snapshot(), filter)
}

// Get returns a copy of one record.
func (s *Service) Get(id string) (Muse, bool) {
	museID, err := NewMuseID(id)
	if err != nil {
		return Muse{}, false
	}
	collection := s.store.Snapshot()
	index := collection.IndexOf(museID.String())
	if index < 0 {
		return Muse{}, false
	}
	return collection[index], true
}

// CreateRequest carries the fields required to register a new record.
type CreateRequest struct {
	Name         string
	Image        string
	MainCategory MainCategory
	SubCategory  SubCategory
}

// Create registers a new record at the head of the feed. Blank required
// fields decline without touching the store.
func (s *Service) Create(request CreateRequest) (Muse, error) {
	name := strings.TrimSpace(request.Name)
	image := strings.TrimSpace(request.Image)
	if name == "" {
		return Muse{}, ErrNameRequired
	}
	if image == "" {
		return Muse{}, ErrImageRequired
	}

	var createdID string
	s.store.Mutate(func(collection Collection) Collection {
		next, id := CreateMuse(collection, s.ids, name, image, request.MainCategory, request.SubCategory)
		createdID = id
		return next
	})
	if createdID == "" {
		return Muse{}, ErrIDGenerationFailed
	}

	created, ok := s.Get(createdID)
	if !ok {
		return Muse{}, ErrMuseNotFound
	}
	s.logger.Info("muse created", zap.String("muse_id", createdID), zap.String("name", created.Name))
	return created, nil
}

// MusePatch carries a partial update; nil fields are left untouched.
type MusePatch struct {
	Name         *string
	MainCategory *MainCategory
	SubCategory  *SubCategory
	GroupName    *string
	PlatformName *string
	MainImage    *string
	Tags         *[]string
	Info         *PersonInfo
	InstagramURL *string
}

func (p MusePatch) applyTo(record Muse) Muse {
	if p.Name != nil {
		record.Name = *p.Name
	}
	if p.MainCategory != nil {
		record.MainCategory = *p.MainCategory
	}
	if p.SubCategory != nil {
		record.SubCategory = *p.SubCategory
	}
	if p.GroupName != nil {
		record.GroupName = *p.GroupName
	}
	if p.PlatformName != nil {
		record.PlatformName = *p.PlatformName
	}
	if p.MainImage != nil {
		record.MainImage = *p.MainImage
	}
	if p.Tags != nil {
		record.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Info != nil {
		record.Info = *p.Info
	}
	if p.InstagramURL != nil {
		record.InstagramURL = *p.InstagramURL
	}
	return record
}

// Update merges a patch into the record with the given id.
func (s *Service) Update(id string, patch MusePatch) (Muse, error) {
	museID, err := NewMuseID(id)
	if err != nil {
		return Muse{}, err
	}
	updated := false
	s.store.Mutate(func(collection Collection) Collection {
		index := collection.IndexOf(museID.String())
		if index < 0 {
			return collection
		}
		updated = true
		return ReplaceMuse(collection, patch.applyTo(collection[index].Clone()))
	})
	if !updated {
		return Muse{}, ErrMuseNotFound
	}
	record, _ := s.Get(museID.String())
	return record, nil
}

// Delete removes a record. The confirmation capability must grant, and any
// detail selection pointing at the record is cleared via the delete hook.
func (s *Service) Delete(id string, confirm ConfirmFunc) error {
	museID, err := NewMuseID(id)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	deleted := false
	s.store.Mutate(func(collection Collection) Collection {
		if collection.IndexOf(museID.String()) < 0 {
			return collection
		}
		deleted = true
		return DeleteMuse(collection, museID.String())
	})
	if !deleted {
		return ErrMuseNotFound
	}
	if s.onDelete != nil {
		s.onDelete(museID.String())
	}
	s.logger.Info("muse deleted", zap.String("muse_id", museID.String()))
	return nil
}

// AddPhoto prepends a gallery entry to the record.
func (s *Service) AddPhoto(id, url string) (Muse, error) {
	museID, err := NewMuseID(id)
	if err != nil {
		return Muse{}, err
	}
	found := false
	s.store.Mutate(func(collection Collection) Collection {
		if collection.IndexOf(museID.String()) < 0 {
			return collection
		}
		found = true
		return AppendGalleryItem(collection, museID.String(), url)
	})
	if !found {
		return Muse{}, ErrMuseNotFound
	}
	record, _ := s.Get(museID.String())
	return record, nil
}

// RemovePhoto drops the gallery entry at the given index after confirmation.
// An out-of-range index is a silent no-op and still returns the record.
func (s *Service) RemovePhoto(id string, index int, confirm ConfirmFunc) (Muse, error) {
	museID, err := NewMuseID(id)
	if err != nil {
		return Muse{}, err
	}
	if confirm == nil || !confirm() {
		return Muse{}, ErrNotConfirmed
	}
	found := false
	s.store.Mutate(func(collection Collection) Collection {
		if collection.IndexOf(museID.String()) < 0 {
			return collection
		}
		found = true
		return RemoveGalleryItem(collection, museID.String(), index)
	})
	if !found {
		return Muse{}, ErrMuseNotFound
	}
	record, _ := s.Get(museID.String())
	return record, nil
}

// ResetArchive wipes the durable slot and restores the seed archive.
func (s *Service) ResetArchive(confirm ConfirmFunc) error {
	if !s.store.Reset(confirm) {
		return ErrNotConfirmed
	}
	s.logger.Info("archive reset to seed data")
	return nil
}
