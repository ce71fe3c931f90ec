package enums

// TimeFilter is the window reddit uses to rank top posts.
type TimeFilter string

const (
	TimeFilterHour  TimeFilter = "hour"
	TimeFilterDay   TimeFilter = "day"
	TimeFilterWeek  TimeFilter = "week"
	TimeFilterMonth TimeFilter = "month"
	TimeFilterYear  TimeFilter = "year"
	TimeFilterAll   TimeFilter = "all"
)

func (f TimeFilter) Valid() bool {
	switch f {
	case TimeFilterHour, TimeFilterDay, TimeFilterWeek, TimeFilterMonth, TimeFilterYear, TimeFilterAll:
		return true
	}
	return false
}
