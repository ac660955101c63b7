package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/interfaces"

	"go.uber.org/zap"
)

// SurveyUsecase handles household survey submissions. A submission is
// anchored on a family head from the caller's section and marks every
// selected family member visited for the caller's tenant, atomically with
// the survey record itself.
type SurveyUsecase struct {
	voters  interfaces.VoterStore
	surveys interfaces.SurveyStore
	logger  *zap.Logger
}

func NewSurveyUsecase(voters interfaces.VoterStore, surveys interfaces.SurveyStore, logger *zap.Logger) *SurveyUsecase {
	return &SurveyUsecase{voters: voters, surveys: surveys, logger: logger}
}

func (uc *SurveyUsecase) Submit(ctx context.Context, identity *entities.Identity, sub entities.SurveySubmission) (int, error) {
	tenantID := TenantOf(identity)

	head, err := uc.voters.GetByID(ctx, sub.FamilyHeadID)
	if err != nil {
		return 0, err
	}
	if head == nil {
		return 0, entities.ErrHeadNotFound
	}
	if identity.SectionNo != nil {
		if head.SectionNo == nil || *head.SectionNo != *identity.SectionNo {
			return 0, entities.ErrSectionMismatch
		}
	}

	// An empty member list is a valid submission: the survey records the
	// household with zero counts and flips no visit flags.
	var male, female, total int
	if len(sub.SelectedFamilyIDs) > 0 {
		sexes, err := uc.voters.GetSexes(ctx, sub.SelectedFamilyIDs)
		if err != nil {
			return 0, err
		}
		total = len(sexes)
		for _, sex := range sexes {
			switch strings.ToUpper(strings.TrimSpace(sex)) {
			case "M", "MALE":
				male++
			case "F", "FEMALE":
				female++
			}
		}
	}

	partNo := ""
	if head.PartNo != nil {
		partNo = strconv.Itoa(*head.PartNo)
	}

	survey := &entities.Survey{
		VoterID:        head.VoterID,
		VEName:         fmt.Sprintf("%s (%s) - %s", head.EName, head.VEName, sub.HouseNumber),
		HouseNo:        sub.HouseNumber,
		Landmark:       sub.Landmark,
		VAddress:       head.VAddress,
		Mobile:         sub.Mobile,
		SectionNo:      head.SectionNo,
		VotersCount:    total,
		Male:           male,
		Female:         female,
		Caste:          sub.Caste,
		Sex:            head.Sex,
		PartNo:         partNo,
		Age:            head.Age,
		UserID:         tenantID,
		SubmissionTime: time.Now(),
	}

	surveyNo, err := uc.surveys.CreateWithVisits(ctx, survey, sub.SelectedFamilyIDs, sub.Visited, tenantID)
	if err != nil {
		uc.logger.Error("survey submission failed",
			zap.Int("voter_id", head.VoterID),
			zap.Int("tenant_id", tenantID),
			zap.Error(err))
		return 0, err
	}

	uc.logger.Info("survey submitted",
		zap.Int("survey_no", surveyNo),
		zap.Int("voter_id", head.VoterID),
		zap.Int("members", len(sub.SelectedFamilyIDs)),
		zap.Int("user_id", identity.UserID))

	return surveyNo, nil
}

func (uc *SurveyUsecase) List(ctx context.Context, identity *entities.Identity, limit, offset int) ([]entities.Survey, int, error) {
	return uc.surveys.List(ctx, TenantOf(identity), limit, offset)
}
