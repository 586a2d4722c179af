package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"userhub-backend/internal/users"
	pkgauth "userhub-backend/pkg/auth"
	"userhub-backend/pkg/config"
	"userhub-backend/pkg/db"
	"userhub-backend/pkg/db/models"
	"userhub-backend/pkg/enums"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/pagination"
	"userhub-backend/pkg/security"
	"userhub-backend/pkg/storage/avatars"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the self-service behavior needed by the account controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*users.UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, req DeleteAccountRequest) error
}

type accountRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByContact(ctx context.Context, email, phone string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields users.UpdateFields) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) ([]models.User, int64, error)
}

type service struct {
	repo        accountRepository
	store       avatars.Store
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an account service.
type ServiceParams struct {
	Repo           accountRepository
	AvatarStore    avatars.Store
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs an account service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository is required")
	}
	if params.AvatarStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "avatar store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &service{
		repo:        params.Repo,
		store:       params.AvatarStore,
		logg:        params.Logger,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	dto, err := s.buildCreateDTO(req, enums.UserRoleUser)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, dto)
	if err != nil {
		return nil, classifyCreateError(err)
	}
	return users.FromModel(created), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := normalizedOrEmpty(req.Email)
	phone := trimmedOrEmpty(req.Phone)
	if email == "" && phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "email or phone is required")
	}
	if err := requireNonEmpty(requiredField{"password", req.Password}); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByContact(ctx, email, phone)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user by contact")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  emailOrEmpty(user.Email),
		Name:   user.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue token")
	}

	return &LoginResponse{User: users.FromModel(user), Token: token}, nil
}

func (s *service) GetAccount(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	return users.FromModel(user), nil
}

func (s *service) UpdateAccount(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*users.UserDTO, error) {
	current, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}

	var fields users.UpdateFields

	if name := trimmedOrEmpty(req.Name); name != "" {
		lowered := strings.ToLower(name)
		fields.Name = &lowered
	}

	// Contact details are write-once on the self-service path. Changing them
	// once set requires the admin modify endpoint.
	if email := normalizedOrEmpty(req.Email); email != "" {
		if current.Email != nil && *current.Email != email {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "email cannot be changed once set")
		}
		if !IsValidEmail(email) {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid email format")
		}
		fields.Email = &email
	}
	if phone := trimmedOrEmpty(req.Phone); phone != "" {
		if current.Phone != nil && *current.Phone != phone {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "phone cannot be changed once set")
		}
		fields.Phone = &phone
	}

	if req.AvatarPath != nil {
		fields.Avatar = req.AvatarPath
	}

	if fields.Empty() {
		return users.FromModel(current), nil
	}

	updated, err := s.repo.Update(ctx, userID, fields)
	if err != nil {
		return nil, classifyCreateError(err)
	}

	// The old image is orphaned once the record points elsewhere. Cleanup is
	// best-effort, logged, never client-visible.
	if fields.Avatar != nil && current.Avatar != nil && *current.Avatar != *fields.Avatar {
		s.deleteAvatarBestEffort(ctx, *current.Avatar)
	}

	return users.FromModel(updated), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if err := requireNonEmpty(
		requiredField{"oldPassword", req.OldPassword},
		requiredField{"newPassword", req.NewPassword},
	); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}

	ok, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password hash")
	}
	return nil
}

func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID, req DeleteAccountRequest) error {
	if err := requireNonEmpty(requiredField{"password", req.Password}); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}

	if user.Avatar != nil {
		s.deleteAvatarBestEffort(ctx, *user.Avatar)
	}
	return nil
}

// buildCreateDTO validates the shared registration shape and produces the
// repo-facing create payload. CreateAdmin reuses it with a different role.
func (s *service) buildCreateDTO(req RegisterRequest, role enums.UserRole) (users.CreateUserDTO, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if err := requireNonEmpty(
		requiredField{"name", name},
		requiredField{"password", req.Password},
	); err != nil {
		return users.CreateUserDTO{}, err
	}

	email := normalizedOrEmpty(req.Email)
	phone := trimmedOrEmpty(req.Phone)
	if email == "" && phone == "" {
		return users.CreateUserDTO{}, pkgerrors.New(pkgerrors.CodeBadRequest, "at least one of email or phone is required")
	}
	if email != "" && !IsValidEmail(email) {
		return users.CreateUserDTO{}, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid email format")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return users.CreateUserDTO{}, typed
		}
		return users.CreateUserDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	dto := users.CreateUserDTO{
		Name:         name,
		PasswordHash: hash,
		Avatar:       req.AvatarPath,
		Role:         role,
	}
	if email != "" {
		dto.Email = &email
	}
	if phone != "" {
		dto.Phone = &phone
	}
	return dto, nil
}

func (s *service) deleteAvatarBestEffort(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "avatar_path", path), "failed to delete stale avatar")
	}
}

// classifyCreateError maps storage-level failures onto the API taxonomy. Races
// between concurrent writes surface here as unique violations.
func classifyCreateError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, users.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "an account with the same name, email or phone already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist user")
}

func normalizedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}

func trimmedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func emailOrEmpty(email *string) string {
	if email == nil {
		return ""
	}
	return *email
}
