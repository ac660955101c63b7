package entities

import "time"

// Survey is one submitted household survey. Rows are append-only: the
// canvassing log is never updated or deleted.
type Survey struct {
	SurveyNo       int       `json:"SurveyNo"`
	VoterID        int       `json:"VoterID"` // family head
	VEName         string    `json:"VEName"`  // display label, not authoritative
	HouseNo        string    `json:"HouseNo"`
	Landmark       string    `json:"Landmark"`
	VAddress       string    `json:"VAddress"`
	Mobile         string    `json:"Mobile"`
	SectionNo      *int      `json:"SectionNo"`
	VotersCount    int       `json:"VotersCount"`
	Male           int       `json:"Male"`
	Female         int       `json:"Female"`
	Caste          string    `json:"Caste"`
	Sex            string    `json:"Sex"`
	PartNo         string    `json:"PartNo"`
	Age            *int      `json:"Age"`
	UserID         int       `json:"UserID"` // owning tenant (main admin id)
	SubmissionTime time.Time `json:"Submission_Time"`
}

// SurveySubmission is the input for the submit workflow.
type SurveySubmission struct {
	FamilyHeadID      int    `json:"family_head_id"`
	SelectedFamilyIDs []int  `json:"selected_family_ids"`
	HouseNumber       string `json:"house_number"`
	Landmark          string `json:"landmark"`
	Mobile            string `json:"mobile"`
	Caste             string `json:"caste"`
	Visited           bool   `json:"visited"`
}
