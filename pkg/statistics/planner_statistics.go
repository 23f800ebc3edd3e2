package statistics

import (
	"sync"
	"time"

	"github.com/caio/go-tdigest"
)

type StatisticsType string

const (
	// time spent building restrictions of a statement
	Prepare = StatisticsType("prepare")
	// time spent computing partition and clustering ranges of one execution
	Bind = StatisticsType("bind")
)

type statistics struct {
	mu sync.Mutex

	PrepareTime map[string]*tdigest.TDigest
	BindTime    map[string]*tdigest.TDigest
	Quantiles   []float64
}

var plannerStatistics = statistics{
	PrepareTime: make(map[string]*tdigest.TDigest),
	BindTime:    make(map[string]*tdigest.TDigest),
}

// InitStatistics resets collected data. Nothing is recorded while q is empty.
func InitStatistics(q []float64) {
	plannerStatistics.mu.Lock()
	defer plannerStatistics.mu.Unlock()

	plannerStatistics.Quantiles = q
	plannerStatistics.PrepareTime = make(map[string]*tdigest.TDigest)
	plannerStatistics.BindTime = make(map[string]*tdigest.TDigest)
}

func GetQuantiles() []float64 {
	plannerStatistics.mu.Lock()
	defer plannerStatistics.mu.Unlock()

	res := make([]float64, len(plannerStatistics.Quantiles))
	copy(res, plannerStatistics.Quantiles)
	return res
}

func digests(tip StatisticsType) map[string]*tdigest.TDigest {
	switch tip {
	case Prepare:
		return plannerStatistics.PrepareTime
	case Bind:
		return plannerStatistics.BindTime
	}
	return nil
}

// RecordTime adds the time elapsed since start, in milliseconds, to the
// digest of table.
func RecordTime(tip StatisticsType, table string, start, finish time.Time) {
	plannerStatistics.mu.Lock()
	defer plannerStatistics.mu.Unlock()

	if len(plannerStatistics.Quantiles) == 0 {
		return
	}
	m := digests(tip)
	if m == nil {
		return
	}
	if m[table] == nil {
		m[table], _ = tdigest.New()
	}
	_ = m[table].Add(float64(finish.Sub(start).Microseconds()) / 1000)
}

func GetTimeQuantile(tip StatisticsType, q float64, table string) float64 {
	plannerStatistics.mu.Lock()
	defer plannerStatistics.mu.Unlock()

	stat := digests(tip)[table]
	if stat == nil || stat.Count() == 0 {
		return 0
	}
	return stat.Quantile(q)
}

// GetTotalTimeQuantile merges the digests of every table.
func GetTotalTimeQuantile(tip StatisticsType, q float64) float64 {
	plannerStatistics.mu.Lock()
	defer plannerStatistics.mu.Unlock()

	total, _ := tdigest.New()
	for _, stat := range digests(tip) {
		_ = total.Merge(stat)
	}
	if total.Count() == 0 {
		return 0
	}
	return total.Quantile(q)
}
