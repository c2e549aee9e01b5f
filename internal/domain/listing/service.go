package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/pkg/imaging"
	"github.com/sharespace/sharespace-api/internal/pkg/storage"
)

// MaxImages caps photos per listing
const MaxImages = 10

// UnlockChecker reports whether a user has paid to see a listing's contacts
type UnlockChecker interface {
	HasUnlocked(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error)
}

// Viewer identifies who is looking at a listing
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service handles listing business logic
type Service struct {
	repo      Repository
	unlocks   UnlockChecker
	storage   storage.Storage
	processor *imaging.Processor
}

// NewService creates listing service. fileStorage may be nil when uploads are disabled.
func NewService(repo Repository, unlocks UnlockChecker, fileStorage storage.Storage, processor *imaging.Processor) *Service {
	return &Service{
		repo:      repo,
		unlocks:   unlocks,
		storage:   fileStorage,
		processor: processor,
	}
}

// Create creates a draft listing, or a pending one when req.Submit is set
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateListingRequest) (*Listing, error) {
	if req.PriceMax > 0 && req.PriceMin > req.PriceMax {
		return nil, ErrInvalidPriceRange
	}

	l := &Listing{
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		Address:        req.Address,
		Status:         StatusDraft,
		SpaceType:      req.SpaceType,
		LocationType:   req.LocationType,
		SuitableFor:    req.SuitableFor,
		NotSuitableFor: req.NotSuitableFor,
		Amenities:      req.Amenities,
		NearbyFeatures: req.NearbyFeatures,
		TimeSlots:      req.TimeSlots,
		PriceMin:       req.PriceMin,
		PriceMax:       req.PriceMax,
		OldProvince:    req.OldProvince,
		OldDistrict:    req.OldDistrict,
		NewProvince:    req.NewProvince,
		NewWard:        req.NewWard,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
		ContactEmail:   req.ContactEmail,
	}
	if req.Submit {
		l.Status = StatusPending
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetByID returns a listing as seen by viewer. Contacts are revealed to the
// owner, admins and users who unlocked it.
func (s *Service) GetByID(ctx context.Context, id int64, viewer *Viewer) (*ListingResponse, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrListingNotFound
	}

	isPrivileged := viewer != nil && (viewer.IsAdmin || l.IsOwnedBy(viewer.UserID))
	if !l.IsPubliclyVisible() && !isPrivileged {
		return nil, ErrListingNotFound
	}
	if isPrivileged {
		return ResponseFromEntity(l, true), nil
	}

	reveal := false
	if viewer != nil && s.unlocks != nil {
		reveal, err = s.unlocks.HasUnlocked(ctx, viewer.UserID, l.ID)
		if err != nil {
			return nil, err
		}
	}
	return ResponseFromEntity(l, reveal), nil
}

// Get returns the raw listing
func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func (s *Service) getOwned(ctx context.Context, id int64, userID uuid.UUID) (*Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(userID) {
		return nil, ErrNotListingOwner
	}
	return l, nil
}

// Update applies owner changes. Approved and expired listings go back to moderation.
func (s *Service) Update(ctx context.Context, id int64, userID uuid.UUID, req *UpdateListingRequest) (*Listing, error) {
	l, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	setString(&l.Title, req.Title)
	setString(&l.Description, req.Description)
	setString(&l.Address, req.Address)
	setString(&l.LocationType, req.LocationType)
	setString(&l.OldProvince, req.OldProvince)
	setString(&l.OldDistrict, req.OldDistrict)
	setString(&l.NewProvince, req.NewProvince)
	setString(&l.NewWard, req.NewWard)
	setString(&l.ContactName, req.ContactName)
	setString(&l.ContactPhone, req.ContactPhone)
	setString(&l.ContactEmail, req.ContactEmail)
	if req.SpaceType != nil {
		l.SpaceType = req.SpaceType
	}
	if req.SuitableFor != nil {
		l.SuitableFor = req.SuitableFor
	}
	if req.NotSuitableFor != nil {
		l.NotSuitableFor = req.NotSuitableFor
	}
	if req.Amenities != nil {
		l.Amenities = req.Amenities
	}
	if req.NearbyFeatures != nil {
		l.NearbyFeatures = req.NearbyFeatures
	}
	if req.TimeSlots != nil {
		l.TimeSlots = req.TimeSlots
	}
	if req.PriceMin != nil {
		l.PriceMin = *req.PriceMin
	}
	if req.PriceMax != nil {
		l.PriceMax = *req.PriceMax
	}
	if l.PriceMax > 0 && l.PriceMin > l.PriceMax {
		return nil, ErrInvalidPriceRange
	}

	if l.Status == StatusApproved || l.Status == StatusExpired {
		l.Status = StatusPending
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Submit sends a draft or rejected listing to moderation
func (s *Service) Submit(ctx context.Context, id int64, userID uuid.UUID) (*Listing, error) {
	l, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusDraft && l.Status != StatusRejected {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusPending, nil, nil); err != nil {
		return nil, err
	}
	l.Status = StatusPending
	l.RejectReason.Valid = false
	return l, nil
}

// Delete hides the listing. Ledger rows and unlocks keep referencing it.
func (s *Service) Delete(ctx context.Context, id int64, userID uuid.UUID) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.SetHidden(ctx, id, true)
}

// ListMine returns every listing owned by userID
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]*Listing, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// ListByIDs returns listings by ID, newest first
func (s *Service) ListByIDs(ctx context.Context, ids []int64) ([]*Listing, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// ListByStatus is used by the moderation queue
func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Listing, int, error) {
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// Approve publishes a pending listing for ttl
func (s *Service) Approve(ctx context.Context, id int64, ttl time.Duration) (*Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	expiresAt := time.Now().Add(ttl)
	if err := s.repo.UpdateStatus(ctx, id, StatusApproved, nil, &expiresAt); err != nil {
		return nil, err
	}
	l.Status = StatusApproved
	l.RejectReason.Valid = false
	l.ExpiresAt.Time, l.ExpiresAt.Valid = expiresAt, true
	return l, nil
}

// Reject sends a pending listing back to its owner with a reason
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusRejected, &reason, nil); err != nil {
		return nil, err
	}
	l.Status = StatusRejected
	l.RejectReason.String, l.RejectReason.Valid = reason, true
	return l, nil
}

// SetHidden hides or restores a listing
func (s *Service) SetHidden(ctx context.Context, id int64, hidden bool) error {
	return s.repo.SetHidden(ctx, id, hidden)
}

// UploadImage validates, resizes and stores a listing photo, returning its URL
func (s *Service) UploadImage(ctx context.Context, id int64, userID uuid.UUID, file io.Reader) (string, error) {
	if s.storage == nil || s.processor == nil {
		return "", ErrStorageUnavailable
	}
	l, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return "", err
	}
	if len(l.Images) >= MaxImages {
		return "", ErrTooManyImages
	}

	data, _, err := storage.ValidateFile(file, storage.CategoryListingImage)
	if err != nil {
		return "", err
	}
	processed, err := s.processor.Process(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidMimeType, err)
	}

	displayKey, thumbKey := imaging.GeneratePaths(id, uuid.NewString(), processed.ContentType)
	if err := s.storage.Put(ctx, displayKey, bytes.NewReader(processed.Display), processed.ContentType); err != nil {
		return "", fmt.Errorf("store display image: %w", err)
	}
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		s.cleanup(ctx, displayKey)
		return "", fmt.Errorf("store thumbnail: %w", err)
	}

	url := s.storage.GetURL(displayKey)
	if err := s.repo.AppendImage(ctx, id, url, MaxImages); err != nil {
		s.cleanup(ctx, displayKey, thumbKey)
		return "", err
	}
	return url, nil
}

func (s *Service) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned listing image")
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
