package entities

// Voter is one registered voter. Demographic fields are shared across all
// tenants; canvassing status lives in the per-tenant visit record.
type Voter struct {
	VoterID   int    `json:"VoterID"`
	PartNo    *int   `json:"PartNo"`
	SectionNo *int   `json:"SectionNo"`
	EName     string `json:"EName"`
	VEName    string `json:"VEName"`
	Surname   string `json:"Surname,omitempty"`
	Sex       string `json:"Sex"`
	Age       *int   `json:"Age"`
	IDCardNo  string `json:"IDCardNo"`
	VPSName   string `json:"VPSName,omitempty"`
	VRName    string `json:"RELATIVE,omitempty"`
	Address   string `json:"Address"`
	VAddress  string `json:"VAddress"`
}

// VoterRow is a voter joined with the caller tenant's visit flag and the
// mobile/house number from that tenant's survey, if any.
type VoterRow struct {
	Voter
	Visited bool    `json:"Visited"`
	Mobile  *string `json:"Mobile"`
	HouseNo *string `json:"HouseNo"`
}

// VoterFilter captures the query parameters of the list endpoints. Nil
// pointer means "not filtered".
type VoterFilter struct {
	Search  string
	Address string
	PartNo  string
	Sex     string
	Visited *bool
	MinAge  *int
	MaxAge  *int
	Limit   int
	Offset  int
}

// VoterFilters is the distinct filter values offered by the dashboard.
type VoterFilters struct {
	AddressList []string `json:"address_list"`
	PartList    []int    `json:"part_list"`
	MinAge      int      `json:"min_age"`
	MaxAge      int      `json:"max_age"`
}

// AddressStat is one bar of the coverage chart.
type AddressStat struct {
	Address    string `json:"Address"`
	Total      int    `json:"Total"`
	Visited    int    `json:"Visited"`
	NotVisited int    `json:"NotVisited"`
}

// VoterSummary is the dashboard's coverage overview for one tenant.
type VoterSummary struct {
	Total        int            `json:"total"`
	Visited      int            `json:"visited"`
	NotVisited   int            `json:"not_visited"`
	SexBreakdown map[string]int `json:"sex_breakdown"`
	AddressChart []AddressStat  `json:"address_chart"`
}

// GroupFilter narrows the grouped views (/voters-data).
type GroupFilter struct {
	Surname string
	PartNo  string
	Address string
	Search  string
	Gender  string
}

// GroupMember is a voter inside a grouped view.
type GroupMember struct {
	VEName   string `json:"VEName"`
	IDCardNo string `json:"IDCardNo"`
	Gender   string `json:"Gender"`
	Age      *int   `json:"Age"`
}

// VoterGroup is one bucket of a grouped view (surname, part, address, ...).
type VoterGroup struct {
	Group   string        `json:"group"`
	Members []GroupMember `json:"members"`
}
