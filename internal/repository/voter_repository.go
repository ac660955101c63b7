package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"project_canvass/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoterRepository struct {
	db *pgxpool.Pool
}

func NewVoterRepository(db *pgxpool.Pool) *VoterRepository {
	return &VoterRepository{db: db}
}

// groupColumns whitelists the columns the grouped views may pivot on. The
// group key is always interpolated from this map, never from user input.
var groupColumns = map[string]string{
	"surname": "surname",
	"part_no": "part_no",
	"address": "address",
	"ward_no": "section_no",
	"gender":  "sex",
}

func (r *VoterRepository) GetByID(ctx context.Context, voterID int) (*entities.Voter, error) {
	var v entities.Voter
	err := r.db.QueryRow(ctx, `
		SELECT voter_id, part_no, section_no, ename, ve_name, COALESCE(surname, ''),
		       COALESCE(sex, ''), age, COALESCE(id_card_no, ''), COALESCE(vps_name, ''),
		       COALESCE(vr_name, ''), COALESCE(address, ''), COALESCE(v_address, '')
		FROM voter_list WHERE voter_id = $1`, voterID).
		Scan(&v.VoterID, &v.PartNo, &v.SectionNo, &v.EName, &v.VEName, &v.Surname,
			&v.Sex, &v.Age, &v.IDCardNo, &v.VPSName, &v.VRName, &v.Address, &v.VAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VoterRepository) GetSexes(ctx context.Context, voterIDs []int) ([]string, error) {
	rows, err := r.db.Query(ctx,
		"SELECT COALESCE(sex, '') FROM voter_list WHERE voter_id = ANY($1)", voterIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sexes := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sexes = append(sexes, s)
	}
	return sexes, rows.Err()
}

// List returns voters scoped to the tenant and section, each joined with the
// tenant's visit flag and the mobile/house captured by that tenant's survey.
func (r *VoterRepository) List(ctx context.Context, tenantID int, sectionNo *int, f entities.VoterFilter) ([]entities.VoterRow, int, error) {
	where := []string{"TRUE"}
	args := []any{tenantID} // $1 feeds both LEFT JOINs

	add := func(clause string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		where = append(where, clause)
	}

	if sectionNo != nil {
		add("v.section_no = ?", *sectionNo)
	}
	if f.Search != "" {
		add("(v.ename ILIKE ? OR v.ve_name ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if f.Address != "" {
		add("v.address = ?", f.Address)
	}
	if f.PartNo != "" {
		add("v.part_no::text = ?", f.PartNo)
	}
	if f.MinAge != nil {
		add("v.age >= ?", *f.MinAge)
	}
	if f.MaxAge != nil {
		add("v.age <= ?", *f.MaxAge)
	}
	switch strings.ToLower(f.Sex) {
	case "male", "m":
		add("v.sex = ?", "M")
	case "female", "f":
		add("v.sex = ?", "F")
	}
	if f.Visited != nil {
		add("COALESCE(vis.visited, FALSE) = ?", *f.Visited)
	}

	whereSQL := strings.Join(where, " AND ")
	fromSQL := `
		FROM voter_list v
		LEFT JOIN voter_visits vis ON vis.voter_id = v.voter_id AND vis.tenant_id = $1
		LEFT JOIN survey_data s ON s.voter_id = v.voter_id AND s.user_id = $1`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	dataSQL := fmt.Sprintf(`
		SELECT v.voter_id, v.part_no, v.section_no, v.ename, v.ve_name,
		       COALESCE(v.surname, ''), COALESCE(v.sex, ''), v.age,
		       COALESCE(v.id_card_no, ''), COALESCE(v.vps_name, ''),
		       COALESCE(v.vr_name, ''), COALESCE(v.address, ''), COALESCE(v.v_address, ''),
		       COALESCE(vis.visited, FALSE), s.mobile, s.house_no
		%s
		WHERE %s
		ORDER BY v.voter_id
		LIMIT $%d OFFSET $%d`, fromSQL, whereSQL, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []entities.VoterRow{}
	for rows.Next() {
		var vr entities.VoterRow
		if err := rows.Scan(&vr.VoterID, &vr.PartNo, &vr.SectionNo, &vr.EName, &vr.VEName,
			&vr.Surname, &vr.Sex, &vr.Age, &vr.IDCardNo, &vr.VPSName,
			&vr.VRName, &vr.Address, &vr.VAddress,
			&vr.Visited, &vr.Mobile, &vr.HouseNo); err != nil {
			return nil, 0, err
		}
		result = append(result, vr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countSQL := fmt.Sprintf(`
		SELECT COUNT(DISTINCT v.voter_id) %s WHERE %s`, fromSQL, whereSQL)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *VoterRepository) Filters(ctx context.Context, sectionNo *int) (*entities.VoterFilters, error) {
	where := "TRUE"
	args := []any{}
	if sectionNo != nil {
		where = "section_no = $1"
		args = append(args, *sectionNo)
	}

	f := &entities.VoterFilters{AddressList: []string{}, PartList: []int{}}

	rows, err := r.db.Query(ctx,
		"SELECT DISTINCT address FROM voter_list WHERE "+where+" AND address IS NOT NULL ORDER BY address", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			rows.Close()
			return nil, err
		}
		f.AddressList = append(f.AddressList, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx,
		"SELECT DISTINCT part_no FROM voter_list WHERE "+where+" AND part_no IS NOT NULL ORDER BY part_no", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		f.PartList = append(f.PartList, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var minAge, maxAge *int
	if err := r.db.QueryRow(ctx,
		"SELECT MIN(age), MAX(age) FROM voter_list WHERE "+where, args...).
		Scan(&minAge, &maxAge); err != nil {
		return nil, err
	}
	if minAge != nil {
		f.MinAge = *minAge
	}
	f.MaxAge = 100
	if maxAge != nil {
		f.MaxAge = *maxAge
	}

	return f, nil
}

// Summary computes coverage for one tenant. The visit join keeps tenant A's
// numbers independent of tenant B's flags over the same voters.
func (r *VoterRepository) Summary(ctx context.Context, tenantID int) (*entities.VoterSummary, error) {
	sum := &entities.VoterSummary{
		SexBreakdown: map[string]int{},
		AddressChart: []entities.AddressStat{},
	}

	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM voter_list").Scan(&sum.Total); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM voter_visits
		WHERE tenant_id = $1 AND visited = TRUE`, tenantID).Scan(&sum.Visited); err != nil {
		return nil, err
	}
	sum.NotVisited = sum.Total - sum.Visited

	rows, err := r.db.Query(ctx,
		"SELECT COALESCE(sex, ''), COUNT(*) FROM voter_list GROUP BY sex")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sex string
		var count int
		if err := rows.Scan(&sex, &count); err != nil {
			rows.Close()
			return nil, err
		}
		sum.SexBreakdown[sex] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT COALESCE(v.address, ''),
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE COALESCE(vis.visited, FALSE)) AS visited,
		       COUNT(*) FILTER (WHERE NOT COALESCE(vis.visited, FALSE)) AS not_visited
		FROM voter_list v
		LEFT JOIN voter_visits vis ON vis.voter_id = v.voter_id AND vis.tenant_id = $1
		GROUP BY v.address
		ORDER BY total DESC
		LIMIT 50`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st entities.AddressStat
		if err := rows.Scan(&st.Address, &st.Total, &st.Visited, &st.NotVisited); err != nil {
			return nil, err
		}
		sum.AddressChart = append(sum.AddressChart, st)
	}
	return sum, rows.Err()
}

// SurnameGroups returns voters bucketed by surname for the family view.
func (r *VoterRepository) SurnameGroups(ctx context.Context, sectionNo *int, surname string, limit, offset int) ([]entities.VoterGroup, int, error) {
	clauses := []string{"TRUE"}
	args := []any{}
	if sectionNo != nil {
		args = append(args, *sectionNo)
		clauses = append(clauses, fmt.Sprintf("section_no = $%d", len(args)))
	}
	if surname != "" {
		args = append(args, "%"+surname+"%")
		clauses = append(clauses, fmt.Sprintf("surname ILIKE $%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	dataSQL := fmt.Sprintf(`
		SELECT ve_name, COALESCE(surname, ''), COALESCE(id_card_no, ''), COALESCE(sex, ''), age
		FROM voter_list
		WHERE %s
		ORDER BY surname ASC, ve_name ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	grouped := map[string][]entities.GroupMember{}
	order := []string{}
	for rows.Next() {
		var name, surname, idCard, sex string
		var age *int
		if err := rows.Scan(&name, &surname, &idCard, &sex, &age); err != nil {
			return nil, 0, err
		}
		key := strings.ToUpper(strings.TrimSpace(surname))
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], entities.GroupMember{
			VEName: name, IDCardNo: idCard, Gender: sex, Age: age,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	result := make([]entities.VoterGroup, 0, len(order))
	for _, key := range order {
		result = append(result, entities.VoterGroup{Group: key, Members: grouped[key]})
	}

	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(DISTINCT surname) FROM voter_list WHERE "+where, args...).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// GroupedView buckets the section's voters by one of the whitelisted
// columns. Returns the groups, the distinct group count, and an error for
// unknown view types.
func (r *VoterRepository) GroupedView(ctx context.Context, sectionNo int, groupBy string, f entities.GroupFilter, limit, offset int) ([]entities.VoterGroup, int, error) {
	col, ok := groupColumns[groupBy]
	if !ok {
		return nil, 0, entities.ErrInvalidGroupView
	}

	where := []string{"section_no = $1"}
	args := []any{sectionNo}

	add := func(clause string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		where = append(where, clause)
	}

	if f.Surname != "" {
		add("surname ILIKE ?", "%"+f.Surname+"%")
	}
	if f.PartNo != "" {
		add("part_no::text = ?", f.PartNo)
	}
	if f.Address != "" {
		add("address ILIKE ?", "%"+f.Address+"%")
	}
	if f.Search != "" {
		add("(ename ILIKE ? OR ve_name ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if f.Gender != "" {
		add("sex ILIKE ?", "%"+f.Gender+"%")
	}
	whereSQL := strings.Join(where, " AND ")

	dataSQL := fmt.Sprintf(`
		SELECT ve_name, %s::text, COALESCE(id_card_no, ''), COALESCE(sex, ''), age
		FROM voter_list
		WHERE %s
		ORDER BY %s ASC, ve_name ASC
		LIMIT $%d OFFSET $%d`, col, whereSQL, col, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	grouped := map[string][]entities.GroupMember{}
	order := []string{}
	for rows.Next() {
		var name, idCard, sex string
		var groupVal *string
		var age *int
		if err := rows.Scan(&name, &groupVal, &idCard, &sex, &age); err != nil {
			return nil, 0, err
		}
		key := "UNKNOWN"
		if groupVal != nil && strings.TrimSpace(*groupVal) != "" {
			key = strings.ToUpper(strings.TrimSpace(*groupVal))
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], entities.GroupMember{
			VEName: name, IDCardNo: idCard, Gender: sex, Age: age,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	result := make([]entities.VoterGroup, 0, len(order))
	for _, key := range order {
		result = append(result, entities.VoterGroup{Group: key, Members: grouped[key]})
	}

	countSQL := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM voter_list WHERE %s", col, whereSQL)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}
