package models

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// TestOutcome is the pass/fail outcome of a tested item.
type TestOutcome string

const (
	OutcomePass TestOutcome = "pass"
	OutcomeFail TestOutcome = "fail"
)

// Frequency is the inspection cadence governing next-due dates and the
// asset-number band.
type Frequency string

const (
	FrequencyMonthly           Frequency = "monthly"
	FrequencyThreeMonthly      Frequency = "threemonthly"
	FrequencySixMonthly        Frequency = "sixmonthly"
	FrequencyTwelveMonthly     Frequency = "twelvemonthly"
	FrequencyTwentyFourMonthly Frequency = "twentyfourmonthly"
	FrequencyFiveYearly        Frequency = "fiveyearly"
)

// Asset-number bands. Five-yearly items carry tags from 10000 up; every
// other cadence shares the 1-9999 band.
const (
	MonthlyBandStart    = 1
	MonthlyBandEnd      = 9999
	FiveYearlyBandStart = 10000
)

// ValidFrequency reports whether the value is a known cadence.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyMonthly, FrequencyThreeMonthly, FrequencySixMonthly,
		FrequencyTwelveMonthly, FrequencyTwentyFourMonthly, FrequencyFiveYearly:
		return true
	}
	return false
}

// BandStart returns the first asset number allowed for the cadence.
func (f Frequency) BandStart() int {
	if f == FrequencyFiveYearly {
		return FiveYearlyBandStart
	}
	return MonthlyBandStart
}

// InBand reports whether the numeric asset value belongs to the cadence band.
func (f Frequency) InBand(n int) bool {
	if f == FrequencyFiveYearly {
		return n >= FiveYearlyBandStart
	}
	return n >= MonthlyBandStart && n <= MonthlyBandEnd
}

// Interval returns how far a passing item's next test is pushed out.
// Unrecognized cadences default to twelve months.
func (f Frequency) Interval() (years, months int) {
	switch f {
	case FrequencyMonthly:
		return 0, 1
	case FrequencyThreeMonthly:
		return 0, 3
	case FrequencySixMonthly:
		return 0, 6
	case FrequencyTwelveMonthly:
		return 1, 0
	case FrequencyTwentyFourMonthly:
		return 2, 0
	case FrequencyFiveYearly:
		return 5, 0
	default:
		return 1, 0
	}
}

// TestResult is one tested item's outcome within a session.
type TestResult struct {
	ID             string      `db:"id" json:"id"`
	SessionID      string      `db:"session_id" json:"session_id"`
	AssetNumber    string      `db:"asset_number" json:"asset_number"`
	ItemName       string      `db:"item_name" json:"item_name"`
	ItemType       string      `db:"item_type" json:"item_type"`
	Location       string      `db:"location" json:"location"`
	Classification string      `db:"classification" json:"classification"`
	Result         TestOutcome `db:"result" json:"result"`
	Frequency      Frequency   `db:"frequency" json:"frequency"`
	FailureReason  *string     `db:"failure_reason" json:"failure_reason,omitempty"`
	ActionTaken    *string     `db:"action_taken" json:"action_taken,omitempty"`
	Notes          *string     `db:"notes" json:"notes,omitempty"`
	PhotoData      *string     `db:"photo_data" json:"photo_data,omitempty"`

	// Emergency exit light extras.
	DischargeTest    *string `db:"discharge_test" json:"discharge_test,omitempty"`
	SwitchingTest    *string `db:"switching_test" json:"switching_test,omitempty"`
	ManufacturerInfo *string `db:"manufacturer_info" json:"manufacturer_info,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ResultSummary carries the headline counts for a session's result set.
type ResultSummary struct {
	TotalItems  int `json:"total_items"`
	PassedItems int `json:"passed_items"`
	FailedItems int `json:"failed_items"`
	PassRate    int `json:"pass_rate"`
}

// Summarize derives counts and the rounded pass rate for a result set.
// A session with no results has a pass rate of zero.
func Summarize(results []TestResult) ResultSummary {
	summary := ResultSummary{TotalItems: len(results)}
	for _, r := range results {
		if r.Result == OutcomePass {
			summary.PassedItems++
		} else {
			summary.FailedItems++
		}
	}
	if summary.TotalItems > 0 {
		summary.PassRate = int(math.Round(float64(summary.PassedItems) / float64(summary.TotalItems) * 100))
	}
	return summary
}

// ParseAssetNumber parses an asset number as a positive integer.
func ParseAssetNumber(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CanonicalAssetNumber parses raw and additionally requires canonical
// decimal form, so "007" and "+7" cannot coexist with "7" as distinct tags.
func CanonicalAssetNumber(raw string) (int, bool) {
	n, ok := ParseAssetNumber(raw)
	if !ok || strconv.Itoa(n) != raw {
		return 0, false
	}
	return n, true
}

// SortResultsByAssetNumber orders results by numeric asset number ascending,
// placing the routine-cadence band (1, 2, 3...) before the five-yearly band
// (10001, 10002...). Non-numeric asset numbers sort as zero.
func SortResultsByAssetNumber(results []TestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return assetSortKey(results[i].AssetNumber) < assetSortKey(results[j].AssetNumber)
	})
}

func assetSortKey(raw string) int {
	n, ok := ParseAssetNumber(raw)
	if !ok {
		return 0
	}
	return n
}

// NextDueDate computes when an item is due for retest. A failed item is due
// immediately: it stays off the future cadence until remediated.
func NextDueDate(testDate time.Time, frequency Frequency, result TestOutcome) time.Time {
	if result == OutcomeFail {
		return testDate
	}
	years, months := frequency.Interval()
	return testDate.AddDate(years, months, 0)
}
