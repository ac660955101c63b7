package repository

import (
	"context"

	"project_canvass/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SurveyRepository struct {
	db *pgxpool.Pool
}

func NewSurveyRepository(db *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// CreateWithVisits inserts the survey row and upserts the tenant's visit
// flag for every selected member inside one transaction. A failure in the
// visit write rolls the survey insert back: the canvassing log never drifts
// from the visit flags.
func (r *SurveyRepository) CreateWithVisits(ctx context.Context, s *entities.Survey, memberIDs []int, visited bool, tenantID int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var surveyNo int
	err = tx.QueryRow(ctx, `
		INSERT INTO survey_data
		(voter_id, ve_name, house_no, landmark, v_address, mobile, section_no,
		 voters_count, male, female, caste, sex, part_no, age, user_id, submission_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		RETURNING survey_no`,
		s.VoterID, s.VEName, s.HouseNo, s.Landmark, s.VAddress, s.Mobile, s.SectionNo,
		s.VotersCount, s.Male, s.Female, s.Caste, s.Sex, s.PartNo, s.Age, tenantID).
		Scan(&surveyNo)
	if err != nil {
		return 0, err
	}

	if len(memberIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO voter_visits (voter_id, tenant_id, visited, updated_at)
			SELECT unnest($1::int[]), $2, $3, NOW()
			ON CONFLICT (voter_id, tenant_id) DO UPDATE
			SET visited = EXCLUDED.visited, updated_at = NOW()`,
			memberIDs, tenantID, visited)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return surveyNo, nil
}

func (r *SurveyRepository) List(ctx context.Context, tenantID, limit, offset int) ([]entities.Survey, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT survey_no, voter_id, COALESCE(ve_name, ''), COALESCE(house_no, ''),
		       COALESCE(landmark, ''), COALESCE(v_address, ''), COALESCE(mobile, ''),
		       section_no, voters_count, male, female, COALESCE(caste, ''),
		       COALESCE(sex, ''), COALESCE(part_no, ''), age, user_id, submission_time
		FROM survey_data
		WHERE user_id = $1
		ORDER BY survey_no
		LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	surveys := []entities.Survey{}
	for rows.Next() {
		var s entities.Survey
		if err := rows.Scan(&s.SurveyNo, &s.VoterID, &s.VEName, &s.HouseNo,
			&s.Landmark, &s.VAddress, &s.Mobile, &s.SectionNo,
			&s.VotersCount, &s.Male, &s.Female, &s.Caste,
			&s.Sex, &s.PartNo, &s.Age, &s.UserID, &s.SubmissionTime); err != nil {
			return nil, 0, err
		}
		surveys = append(surveys, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM survey_data WHERE user_id = $1", tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return surveys, total, nil
}
