package usecases

import (
	"context"

	"project_canvass/internal/entities"
	"project_canvass/internal/interfaces"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsecase covers account provisioning: admins create sub-users under
// a quota and inherit their own section onto them.
type AdminUsecase struct {
	users  interfaces.UserStore
	logger *zap.Logger
}

func NewAdminUsecase(users interfaces.UserStore, logger *zap.Logger) *AdminUsecase {
	return &AdminUsecase{users: users, logger: logger}
}

// CreateSubUser provisions a new account under the calling admin. The
// quota check and counter increment happen atomically in the store, so
// concurrent calls cannot oversubscribe the allocation.
func (uc *AdminUsecase) CreateSubUser(ctx context.Context, identity *entities.Identity, username, password string) (int, error) {
	if identity.Role != entities.RoleAdmin {
		return 0, entities.ErrForbidden
	}
	if identity.SectionNo == nil {
		return 0, entities.ErrNoSectionAssigned
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := uc.users.CreateSubUser(ctx, identity.UserID, username, string(hash), *identity.SectionNo)
	if err != nil {
		uc.logger.Warn("sub-user creation rejected",
			zap.Int("admin_id", identity.UserID),
			zap.String("username", username),
			zap.Error(err))
		return 0, err
	}

	uc.logger.Info("sub-user created",
		zap.Int("admin_id", identity.UserID),
		zap.Int("user_id", id),
		zap.String("username", username))
	return id, nil
}

// ListSubUsers returns accounts parented to the caller.
func (uc *AdminUsecase) ListSubUsers(ctx context.Context, identity *entities.Identity) ([]entities.SubUser, error) {
	return uc.users.ListSubUsers(ctx, identity.UserID)
}

// SetAllocation adjusts an admin account's sub-user quota.
func (uc *AdminUsecase) SetAllocation(ctx context.Context, identity *entities.Identity, userID, allocated int) error {
	if identity.Role != entities.RoleAdmin {
		return entities.ErrForbidden
	}
	ok, err := uc.users.SetAllocation(ctx, userID, allocated)
	if err != nil {
		return err
	}
	if !ok {
		return entities.ErrUserNotFound
	}
	uc.logger.Info("allocation updated",
		zap.Int("user_id", userID),
		zap.Int("allocated", allocated))
	return nil
}

// Status reports the caller's quota usage and activation state.
func (uc *AdminUsecase) Status(ctx context.Context, identity *entities.Identity) (*entities.UserStatus, error) {
	status, err := uc.users.Status(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, entities.ErrUserNotFound
	}
	return status, nil
}

// Profile returns the display profile of the caller's tenant admin.
func (uc *AdminUsecase) Profile(ctx context.Context, identity *entities.Identity) (*entities.Profile, error) {
	profile, err := uc.users.GetProfile(ctx, identity.MainAdminID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, entities.ErrUserNotFound
	}
	return profile, nil
}
