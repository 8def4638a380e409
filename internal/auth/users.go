package auth

import (
	"context"
	"errors"
	"strings"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both an unknown user and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 4

// Users authenticates staff and registers new accounts.
type Users struct {
	store  *database.Store
	tokens *Tokens
	log    *logrus.Entry
}

func NewUsers(store *database.Store, tokens *Tokens, logg *logrus.Logger) *Users {
	return &Users{store: store, tokens: tokens, log: logg.WithField("module", "auth")}
}

// Login checks the password and returns a signed token.
func (u *Users) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	if err := u.store.DB().WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, apperr.Wrap(apperr.KindStorage, "auth.Login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		u.log.WithField("username", user.Username).Warn("failed login")
		return "", nil, ErrInvalidCredentials
	}
	token, err := u.tokens.Generate(user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Register creates a staff account. Role defaults to cashier.
func (u *Users) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	const op = "auth.Register"
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation(op, "username is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation(op, "password is too short")
	}
	switch role {
	case "":
		role = models.RoleCashier
	case models.RoleAdmin, models.RoleCashier:
	default:
		return nil, apperr.Validation(op, "unknown role "+role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    u.store.Now(),
	}
	err = u.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return apperr.InUse(op, "username", username)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"username": username, "role": role}).Info("user registered")
	return &user, nil
}
