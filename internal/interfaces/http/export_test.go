package http

import (
	"bytes"
	"testing"

	"project_canvass/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildVoterWorkbook(t *testing.T) {
	part, section, age := 3, 5, 44
	mobile := "9876543210"
	rows := []entities.VoterRow{
		{
			Voter: entities.Voter{
				VoterID:   101,
				PartNo:    &part,
				SectionNo: &section,
				EName:     "Ramesh",
				VEName:    "Ramesh-local",
				Surname:   "Kumar",
				Sex:       "M",
				Age:       &age,
				IDCardNo:  "ABC1234567",
				Address:   "Main Street",
			},
			Visited: true,
			Mobile:  &mobile,
		},
		{
			Voter: entities.Voter{VoterID: 102, EName: "Sita", Surname: "Patel", Sex: "F"},
		},
	}

	data, err := buildVoterWorkbook(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Voters")
	require.NoError(t, err)
	require.Len(t, got, 3) // header + 2 voters

	assert.Equal(t, "Voter ID", got[0][0])
	assert.Equal(t, "101", got[1][0])
	assert.Equal(t, "Ramesh", got[1][3])
	assert.Equal(t, "TRUE", got[1][13])
	assert.Equal(t, "Sita", got[2][3])
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("worker_1"))
	assert.True(t, ValidUsername("Worker-2"))
	assert.False(t, ValidUsername(""))
	assert.False(t, ValidUsername("has space"))
	assert.False(t, ValidUsername("semi;colon"))
}

func TestClampPage(t *testing.T) {
	limit, offset := ClampPage(0, -5)
	assert.Equal(t, DefaultPageSize, limit)
	assert.Zero(t, offset)

	limit, _ = ClampPage(10000, 0)
	assert.Equal(t, MaxPageSize, limit)
}
