package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"userhub-backend/internal/users"
	"userhub-backend/pkg/enums"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/pagination"
)

// AdminService defines the privileged operations over arbitrary accounts.
type AdminService interface {
	ListUsers(ctx context.Context, params pagination.Params) (*UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	ModifyUser(ctx context.Context, id uuid.UUID, input map[string]any) (*users.UserDTO, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CreateAdmin(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type adminService struct {
	accounts *service
}

// NewAdminService constructs the admin surface on top of the same
// repository and stores the account service uses.
func NewAdminService(base Service) (AdminService, error) {
	impl, ok := base.(*service)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unsupported account service implementation")
	}
	return &adminService{accounts: impl}, nil
}

func (s *adminService) ListUsers(ctx context.Context, params pagination.Params) (*UserListResponse, error) {
	params = params.Normalize()

	rows, total, err := s.accounts.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	dtos := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *users.FromModel(&rows[i]))
	}

	return &UserListResponse{
		Users: dtos,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	user, err := s.accounts.repo.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	return users.FromModel(user), nil
}

// ModifyUser applies a whitelisted partial update to a regular account.
// Admin accounts are immutable through this path.
func (s *adminService) ModifyUser(ctx context.Context, id uuid.UUID, input map[string]any) (*users.UserDTO, error) {
	target, err := s.accounts.repo.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if target.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "admin accounts cannot be modified")
	}

	fields, err := pickAllowedFields(input)
	if err != nil {
		return nil, err
	}
	if fields.Empty() {
		return users.FromModel(target), nil
	}

	updated, err := s.accounts.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, classifyCreateError(err)
	}
	return users.FromModel(updated), nil
}

// DeleteUser removes a regular account and its avatar. Admin accounts cannot
// be deleted through this path.
func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	target, err := s.accounts.repo.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if target.Role == enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "admin accounts cannot be deleted")
	}

	if err := s.accounts.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}

	if target.Avatar != nil {
		s.accounts.deleteAvatarBestEffort(ctx, *target.Avatar)
	}
	return nil
}

// CreateAdmin runs the registration rules but persists role=admin.
func (s *adminService) CreateAdmin(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	dto, err := s.accounts.buildCreateDTO(req, enums.UserRoleAdmin)
	if err != nil {
		return nil, err
	}

	created, err := s.accounts.repo.Create(ctx, dto)
	if err != nil {
		return nil, classifyCreateError(err)
	}
	return users.FromModel(created), nil
}
