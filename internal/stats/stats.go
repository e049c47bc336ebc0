// Package stats computes the dashboard summary figures from the loaded
// enquiry collection. Several outputs are deliberately synthetic: the role
// switch estimate is a fixed 11% heuristic, the average rating is derived
// from the active count rather than real ratings, and the daily login series
// is randomly generated. They exist to fill the overview cards until a real
// analytics backend lands and must not be read as measured data.
package stats

import (
	"math"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"enquiry-admin/internal/models"
)

// roleSwitchRate is the placeholder share of users assumed to be interested
// in switching roles.
const roleSwitchRate = 0.11

// loginSeriesDays is the length of the synthetic daily login series.
const loginSeriesDays = 30

var fresherPattern = regexp.MustCompile(`(?i)junior|intern|associate|trainee`)

// Calculator is shared across concurrent requests; rnd is not safe for
// concurrent use and is guarded by mu.
type Calculator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCalculator() *Calculator {
	return &Calculator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Overview derives the summary statistics for the given collection. An empty
// collection yields zero counts and a well-defined rating.
func (c *Calculator) Overview(enquiries []models.Enquiry, now time.Time) models.Overview {
	total := len(enquiries)

	active := 0
	freshers := 0
	organic := 0
	for _, e := range enquiries {
		if e.Status == models.StatusActive {
			active++
		}
		if fresherPattern.MatchString(e.Designation) {
			freshers++
		}
		if e.IsOrganic() {
			organic++
		}
	}

	roleSwitch := int(math.Round(float64(total) * roleSwitchRate))
	avgRating := math.Round((4.0+float64(active%10)*0.1)*100) / 100

	return models.Overview{
		TotalCount:         total,
		ActiveCount:        active,
		RoleSwitchEstimate: roleSwitch,
		OtherOutcomesCount: total - roleSwitch,
		AvgRating:          avgRating,
		FreshersCount:      freshers,
		ProfessionalsCount: total - freshers,
		OrganicCount:       organic,
		InorganicCount:     total - organic,
		LoginSeries:        c.loginSeries(active, now),
		Synthetic:          true,
	}
}

// loginSeries generates the trailing 30-day mock login chart, oldest day
// first. Each point is floor(activeCount * r) with r uniform in [0.3, 0.9).
// Non-deterministic on purpose; it is decorative.
func (c *Calculator) loginSeries(activeCount int, now time.Time) []models.LoginPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	series := make([]models.LoginPoint, 0, loginSeriesDays)
	for i := loginSeriesDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		factor := 0.3 + c.rnd.Float64()*0.6
		series = append(series, models.LoginPoint{
			Day:   day.Format("Jan 2"),
			Value: int(math.Floor(float64(activeCount) * factor)),
		})
	}
	return series
}
