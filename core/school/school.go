// Package school holds the school profile singleton: the identity block
// printed on receipts and report cards.
package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

var ErrNotFound = core.NewNotFoundError("school information")

type (
	Info struct {
		ID        string    `json:"id" bson:"_id,omitempty"`
		Name      string    `json:"name" bson:"name"`
		Address   string    `json:"address" bson:"address"`
		Motto     string    `json:"motto,omitempty" bson:"motto,omitempty"`
		Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
		Email     string    `json:"email,omitempty" bson:"email,omitempty"`
		CreatedAt time.Time `json:"created_at" bson:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at" bson:"updated_at"` // UTC
	}

	Repository interface {
		GetInfo(ctx context.Context) (Info, error)
		SaveInfo(ctx context.Context, info Info) (Info, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpdateInfo defines what may be provided to modify the school profile;
// empty fields keep their current value.
type UpdateInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Motto   string `json:"motto"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (ui *UpdateInfo) Validate(validate *validator.Validate) error {
	ui.Name = core.CleanString(ui.Name)
	ui.Address = core.CleanString(ui.Address)
	ui.Motto = core.CleanString(ui.Motto)
	ui.Phone = core.CleanString(ui.Phone)
	ui.Email = core.CleanString(ui.Email, true /* lower */)
	return validate.Struct(ui)
}

func (svc *Service) Get(ctx context.Context) (Info, error) {
	return svc.repo.GetInfo(ctx)
}

// Update applies non-empty fields to the singleton, creating it on first use.
func (svc *Service) Update(ctx context.Context, ui UpdateInfo) (Info, error) {
	info, err := svc.repo.GetInfo(ctx)
	if err != nil && err != ErrNotFound {
		return Info{}, err
	}
	now := time.Now().UTC()
	if err == ErrNotFound {
		info.CreatedAt = now
	}

	if ui.Name != "" {
		info.Name = ui.Name
	}
	if ui.Address != "" {
		info.Address = ui.Address
	}
	if ui.Motto != "" {
		info.Motto = ui.Motto
	}
	if ui.Phone != "" {
		info.Phone = ui.Phone
	}
	if ui.Email != "" {
		info.Email = ui.Email
	}
	info.UpdatedAt = now
	return svc.repo.SaveInfo(ctx, info)
}
