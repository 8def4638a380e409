// Package parties is the customer book.
package parties

import (
	"context"
	"strings"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Service struct {
	store    *database.Store
	log      *logrus.Entry
	validate *validator.Validate
}

func New(store *database.Store, logg *logrus.Logger) *Service {
	return &Service{
		store:    store,
		log:      logg.WithField("module", "parties"),
		validate: validator.New(),
	}
}

// CustomerInput carries the editable customer facts.
type CustomerInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
	TaxID   string `json:"tax_id" validate:"max=50"`
}

func (s *Service) check(op string, in *CustomerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.TaxID = strings.TrimSpace(in.TaxID)
	if err := s.validate.Struct(in); err != nil {
		return apperr.FromValidator(op, err)
	}
	// validator accepts several addresses in one field; a customer has one.
	if in.Email != "" && strings.Count(in.Email, "@") != 1 {
		return apperr.Validation(op, apperr.MsgInvalidEmail)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CustomerInput, actor string) (*models.Customer, error) {
	const op = "parties.Create"
	if err := s.check(op, &in); err != nil {
		return nil, err
	}
	c := &models.Customer{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		TaxID:     in.TaxID,
		CreatedBy: actor,
	}
	if err := s.store.Run(ctx, func(tx *gorm.DB) error {
		return tx.Create(c).Error
	}); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"customer_id": c.ID, "actor": actor}).Info("customer created")
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uint, in CustomerInput, actor string) (*models.Customer, error) {
	const op = "parties.Update"
	if err := s.check(op, &in); err != nil {
		return nil, err
	}
	var c models.Customer
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return database.Lookup(err, op, "customer", id)
		}
		c.Name, c.Email, c.Phone, c.Address, c.TaxID = in.Name, in.Email, in.Phone, in.Address, in.TaxID
		return tx.Model(&c).Select("name", "email", "phone", "address", "tax_id").Updates(&c).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"customer_id": id, "actor": actor}).Info("customer updated")
	return &c, nil
}

// Delete removes a customer that no invoice references.
func (s *Service) Delete(ctx context.Context, id uint, actor string) error {
	const op = "parties.Delete"
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.First(&c, id).Error; err != nil {
			return database.Lookup(err, op, "customer", id)
		}
		var invoices int64
		if err := tx.Model(&models.Invoice{}).Where("customer_id = ?", id).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return apperr.InUse(op, "customer", id)
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"customer_id": id, "actor": actor}).Info("customer deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.store.DB().WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, database.Lookup(err, "parties.Get", "customer", id)
	}
	return &c, nil
}

// List returns customers by name; a non-empty query filters on name, email
// and phone.
func (s *Service) List(ctx context.Context, query string) ([]models.Customer, error) {
	q := s.store.DB().WithContext(ctx).Model(&models.Customer{})
	if query = strings.TrimSpace(strings.ToLower(query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like)
	}
	var out []models.Customer
	if err := q.Order("name").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "parties.List", err)
	}
	return out, nil
}
