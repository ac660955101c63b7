package usecases

import (
	"context"
	"fmt"
	"strings"

	"project_canvass/internal/entities"
	"project_canvass/internal/interfaces"

	"go.uber.org/zap"
)

// VoterUsecase serves reads over the shared voter roll, scoped by the
// caller's section and tenant.
type VoterUsecase struct {
	voters interfaces.VoterStore
	logger *zap.Logger
}

func NewVoterUsecase(voters interfaces.VoterStore, logger *zap.Logger) *VoterUsecase {
	return &VoterUsecase{voters: voters, logger: logger}
}

func (uc *VoterUsecase) List(ctx context.Context, identity *entities.Identity, f entities.VoterFilter) ([]entities.VoterRow, int, error) {
	return uc.voters.List(ctx, TenantOf(identity), identity.SectionNo, f)
}

func (uc *VoterUsecase) Filters(ctx context.Context, identity *entities.Identity) (*entities.VoterFilters, error) {
	return uc.voters.Filters(ctx, identity.SectionNo)
}

func (uc *VoterUsecase) Summary(ctx context.Context, identity *entities.Identity) (*entities.VoterSummary, error) {
	return uc.voters.Summary(ctx, TenantOf(identity))
}

func (uc *VoterUsecase) SurnameGroups(ctx context.Context, identity *entities.Identity, surname string, limit, offset int) ([]entities.VoterGroup, int, error) {
	return uc.voters.SurnameGroups(ctx, identity.SectionNo, surname, limit, offset)
}

// GroupedView returns voters bucketed by the requested attribute. Only
// section-assigned users may use it; the view name is validated by the
// store against a fixed whitelist.
func (uc *VoterUsecase) GroupedView(ctx context.Context, identity *entities.Identity, view string, f entities.GroupFilter, limit, offset int) ([]entities.VoterGroup, int, error) {
	if identity.SectionNo == nil {
		return nil, 0, entities.ErrNoSectionAssigned
	}

	view = strings.ToLower(strings.TrimSpace(view))
	groups, total, err := uc.voters.GroupedView(ctx, *identity.SectionNo, view, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if view == "ward_no" {
		for i := range groups {
			groups[i].Group = fmt.Sprintf("Ward %s", groups[i].Group)
		}
	}
	return groups, total, nil
}
