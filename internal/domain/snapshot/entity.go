package snapshot

// HistoricalRow is one security row of the historical open-interest table.
// All values are display strings. Empty values are "" and never omitted.
type HistoricalRow struct {
	Stock            string `json:"Stock" db:"stock" csv:"Stock"`
	Category         string `json:"Category" db:"category" csv:"Category"`
	Strike           string `json:"Strike" db:"strike" csv:"Strike"`
	PrevOI           string `json:"Prev_OI" db:"prev_oi" csv:"Prev_OI"`
	LatestOI         string `json:"Latest_OI" db:"latest_oi" csv:"Latest_OI"`
	CallOIDifference string `json:"Call_OI_Difference" db:"call_oi_difference" csv:"Call_OI_Difference"`
	PutOIDifference  string `json:"Put_OI_Difference" db:"put_oi_difference" csv:"Put_OI_Difference"`
	LTP              string `json:"LTP" db:"ltp" csv:"LTP"`
	AdditionalStrike string `json:"Additional_Strike" db:"additional_strike" csv:"Additional_Strike"`
}

// LiveRow is one reconciled row of a security's live block.
type LiveRow struct {
	Section     Section `json:"Section" db:"section" csv:"Section"`
	Label       string  `json:"Label" db:"label" csv:"Label"`
	PrevOI      string  `json:"Prev_OI" db:"prev_oi" csv:"Prev_OI"`
	Strike      string  `json:"Strike" db:"strike" csv:"Strike"`
	Stock       string  `json:"Stock" db:"stock" csv:"Stock"`
	OIDiff      string  `json:"OI_Diff" db:"oi_diff" csv:"OI_Diff"`
	IsNewStrike string  `json:"Is_NewStrike" db:"is_new_strike" csv:"Is_NewStrike"`
	AddStrike   string  `json:"Add_Strike" db:"add_strike" csv:"Add_Strike"`
}

// Summary is everything stored for one security.
type Summary struct {
	Historical []HistoricalRow `json:"historical"`
	Live       []LiveRow       `json:"live"`
}

// Empty reports whether neither row-set has data.
func (s Summary) Empty() bool {
	return len(s.Historical) == 0 && len(s.Live) == 0
}

// Section is one of the four fixed live-block partitions.
type Section string

const (
	SectionCallSupport    Section = "Call Support"
	SectionPutSupport     Section = "Put Support"
	SectionCallResistance Section = "Call Resistance"
	SectionPutResistance  Section = "Put Resistance"
)

// Sections lists the partitions in header-detection order.
var Sections = []Section{
	SectionCallSupport,
	SectionPutSupport,
	SectionCallResistance,
	SectionPutResistance,
}

// String returns string representation
func (s Section) String() string {
	return string(s)
}

// IsCall reports whether the section reads the call column group.
func (s Section) IsCall() bool {
	return s == SectionCallSupport || s == SectionCallResistance
}

// NewStrikeFlag is the Is_NewStrike value for strikes absent from history.
const NewStrikeFlag = "Yes"
