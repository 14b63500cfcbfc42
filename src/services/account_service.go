package services

import (
	"context"
	"errors"
	"strings"

	"finance/src/models"
	"finance/src/monitoring"
	"finance/src/repositories"
	"finance/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SpecialCharacters is the set a password draws its strength from.
const SpecialCharacters = "@_!#$%^&*()<>?/:"

// MinSpecialCharacters is how many characters of SpecialCharacters a password needs.
const MinSpecialCharacters = 2

type AccountServiceI interface {
	Register(ctx context.Context, username, password, confirmation string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type registration struct {
	Username     string `validate:"required"`
	Password     string `validate:"required"`
	Confirmation string `validate:"eqfield=Password"`
}

type AccountService struct {
	userRepo     repositories.UserRepository
	startingCash decimal.Decimal
	hashCost     int
	validate     *validator.Validate
	metrics      *monitoring.Metrics
}

func NewAccountService(userRepo repositories.UserRepository, startingCash decimal.Decimal, metrics *monitoring.Metrics) *AccountService {
	validate := validator.New()
	_ = validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return &AccountService{
		userRepo:     userRepo,
		startingCash: startingCash,
		hashCost:     bcrypt.DefaultCost,
		validate:     validate,
		metrics:      metrics,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// CountSpecialCharacters counts the runes of password that belong to SpecialCharacters.
func CountSpecialCharacters(password string) int {
	count := 0
	for _, r := range password {
		if strings.ContainsRune(SpecialCharacters, r) {
			count++
		}
	}
	return count
}

func IsStrongPassword(password string) bool {
	return CountSpecialCharacters(password) >= MinSpecialCharacters
}

func (s *AccountService) Register(ctx context.Context, username, password, confirmation string) (int64, error) {
	req := registration{Username: strings.TrimSpace(username), Password: password, Confirmation: confirmation}
	if err := s.validate.Struct(req); err != nil {
		s.metrics.RecordRegistration("invalid")
		return 0, registrationError(err)
	}
	if err := s.validate.Var(password, "strongpassword"); err != nil {
		s.metrics.RecordRegistration("invalid")
		return 0, newError(ErrValidation, "password is not strong enough: it needs at least 2 of "+SpecialCharacters)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		s.metrics.RecordRegistration("invalid")
		return 0, wrapError(ErrValidation, "password cannot be used", err)
	}

	user := &models.User{Username: req.Username, Hash: string(hash), Cash: s.startingCash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.metrics.RecordRegistration("conflict")
			return 0, wrapError(ErrConflict, "username already taken", err)
		}
		s.metrics.RecordRegistration("error")
		return 0, persistence(err)
	}

	s.metrics.RecordRegistration("ok")
	utils.LoggerFromContext(ctx).WithField("user_id", user.ID).Info("user registered")
	return user.ID, nil
}

func registrationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return wrapError(ErrValidation, "invalid registration", err)
	}
	switch validationErrors[0].Field() {
	case "Username":
		return newError(ErrValidation, "must provide username")
	case "Password":
		return newError(ErrValidation, "must provide password")
	default:
		return newError(ErrValidation, "passwords do not match")
	}
}

// Authenticate returns the id of the user whose password matches. Unknown users and wrong
// passwords produce the same error.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, newError(ErrAuth, "must provide username")
	}
	if password == "" {
		return 0, newError(ErrAuth, "must provide password")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, newError(ErrAuth, "invalid username and/or password")
	}
	if err != nil {
		return 0, persistence(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return 0, newError(ErrAuth, "invalid username and/or password")
	}
	return user.ID, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrAuth, "unknown user")
	}
	if err != nil {
		return nil, persistence(err)
	}
	return user, nil
}
