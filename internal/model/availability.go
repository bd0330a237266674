package model

// Weekday день недели в том виде, в котором его передаёт клиент
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays все допустимые дни в порядке недели
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid проверяет что день входит в перечисление
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// AvailabilityEntry окно, в которое учитель принимает занятия (HH:MM)
type AvailabilityEntry struct {
	Day  Weekday `json:"day"`
	From string  `json:"from"`
	To   string  `json:"to"`
}
