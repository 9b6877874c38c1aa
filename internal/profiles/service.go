package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

// Provider resolves the shipping profile checkout copies into an order.
type Provider interface {
	GetShippingProfile(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error)
}

// Service maintains shipping profiles.
type Service interface {
	Provider
	Upsert(ctx context.Context, userID uuid.UUID, input UpsertInput) (*models.ShippingProfile, error)
}

// UpsertInput is the editable profile payload.
type UpsertInput struct {
	FullName string
	Address  string
	City     string
	State    string
	Pincode  string
	Phone    string
	Landmark *string
	AltPhone *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetShippingProfile(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	profile, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping profile not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping profile")
	}
	return profile, nil
}

func (s *service) Upsert(ctx context.Context, userID uuid.UUID, input UpsertInput) (*models.ShippingProfile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	address := models.ShippingAddress{
		FullName: strings.TrimSpace(input.FullName),
		Address:  strings.TrimSpace(input.Address),
		City:     strings.TrimSpace(input.City),
		State:    strings.TrimSpace(input.State),
		Pincode:  strings.TrimSpace(input.Pincode),
		Phone:    strings.TrimSpace(input.Phone),
		Landmark: trimmed(input.Landmark),
		AltPhone: trimmed(input.AltPhone),
	}
	if missing := MissingFields(address); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}

	profile := &models.ShippingProfile{UserID: userID, Address: address}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping profile")
	}
	return s.GetShippingProfile(ctx, userID)
}

// MissingFields lists the required address fields that are blank.
func MissingFields(a models.ShippingAddress) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
		{"phone", a.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
