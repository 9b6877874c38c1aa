package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/orderflow-backend/api/middleware"
	"github.com/angelmondragon/orderflow-backend/api/responses"
	"github.com/angelmondragon/orderflow-backend/api/validators"
	"github.com/angelmondragon/orderflow-backend/internal/profiles"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
)

// ShippingProfileRequest is the editable default shipping address.
type ShippingProfileRequest struct {
	FullName string  `json:"full_name" validate:"required,max=120"`
	Address  string  `json:"address" validate:"required,max=500"`
	City     string  `json:"city" validate:"required,max=80"`
	State    string  `json:"state" validate:"required,max=80"`
	Pincode  string  `json:"pincode" validate:"required,numeric,len=6"`
	Phone    string  `json:"phone" validate:"required,numeric,min=10,max=15"`
	Landmark *string `json:"landmark,omitempty" validate:"omitempty,max=120"`
	AltPhone *string `json:"alternate_phone,omitempty" validate:"omitempty,numeric,min=10,max=15"`
}

type shippingProfileResponse struct {
	FullName  string    `json:"full_name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Phone     string    `json:"phone"`
	Landmark  *string   `json:"landmark,omitempty"`
	AltPhone  *string   `json:"alternate_phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newShippingProfileResponse(p *models.ShippingProfile) shippingProfileResponse {
	return shippingProfileResponse{
		FullName:  p.Address.FullName,
		Address:   p.Address.Address,
		City:      p.Address.City,
		State:     p.Address.State,
		Pincode:   p.Address.Pincode,
		Phone:     p.Address.Phone,
		Landmark:  p.Address.Landmark,
		AltPhone:  p.Address.AltPhone,
		UpdatedAt: p.UpdatedAt,
	}
}

func GetShippingProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetShippingProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShippingProfileResponse(profile))
	}
}

func UpdateShippingProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body ShippingProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Upsert(r.Context(), userID, profiles.UpsertInput{
			FullName: body.FullName,
			Address:  body.Address,
			City:     body.City,
			State:    body.State,
			Pincode:  body.Pincode,
			Phone:    body.Phone,
			Landmark: body.Landmark,
			AltPhone: body.AltPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShippingProfileResponse(profile))
	}
}
