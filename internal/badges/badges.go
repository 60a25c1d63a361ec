package badges

// Badge is a collectible award.
type Badge struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

const (
	FirstTimer  = "First Timer"
	Workouts5   = "5 Workouts"
	Workouts10  = "10 Workouts"
	Workouts25  = "25 Workouts"
	Workouts50  = "50 Workouts"
	Workouts100 = "100 Workouts"
	WeekStreak  = "Week Streak"
	MonthStreak = "Month Streak"
	SpeedDemon  = "Speed Demon"
	YearStrong  = "Year Strong"
	Consistency = "Consistency"
)

// speedDemonAt is the total rest, in seconds, a workout must stay under.
const speedDemonAt = 120

// All lists every badge the timer can award, in display order.
var All = []Badge{
	{Name: Workouts5, Icon: "★", Description: "You completed 5 workouts with the timer!"},
	{Name: Workouts10, Icon: "🏆", Description: "You completed 10 workouts with the timer!"},
	{Name: Workouts25, Icon: "🏅", Description: "You completed 25 workouts with the timer!"},
	{Name: Workouts50, Icon: "👑", Description: "You completed 50 workouts with the timer!"},
	{Name: Workouts100, Icon: "✨", Description: "You completed 100 workouts with the timer!"},
	{Name: WeekStreak, Icon: "🔥", Description: "You used the app for 14 days straight!"},
	{Name: MonthStreak, Icon: "🎆", Description: "You used the app for 28 days straight!"},
	{Name: SpeedDemon, Icon: "⚡", Description: "You did a full workout with less than 2 minutes of rest!"},
	{Name: FirstTimer, Icon: "⚑", Description: "You completed your first workout!"},
	{Name: YearStrong, Icon: "📅", Description: "You completed 10 workouts!"},
	{Name: Consistency, Icon: "📈", Description: "You used the app for 365 days straight!"},
}

// Lookup returns the badge with the given name.
func Lookup(name string) (Badge, bool) {
	for _, b := range All {
		if b.Name == name {
			return b, true
		}
	}
	return Badge{}, false
}

var workoutThresholds = []struct {
	count int
	badge string
}{
	{5, Workouts5},
	{10, Workouts10},
	{25, Workouts25},
	{50, Workouts50},
	{100, Workouts100},
	{10, YearStrong},
}

var streakThresholds = []struct {
	days  int
	badge string
}{
	{14, WeekStreak},
	{28, MonthStreak},
	{365, Consistency},
}
