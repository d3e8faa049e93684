package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, ResultSummary{}, summary)
}

func TestSummarizeCounts(t *testing.T) {
	results := []TestResult{
		{Result: OutcomePass},
		{Result: OutcomePass},
		{Result: OutcomeFail},
	}
	summary := Summarize(results)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 2, summary.PassedItems)
	assert.Equal(t, 1, summary.FailedItems)
	assert.Equal(t, 67, summary.PassRate)
}

func TestSummarizeAllPassed(t *testing.T) {
	summary := Summarize([]TestResult{{Result: OutcomePass}, {Result: OutcomePass}})
	assert.Equal(t, 100, summary.PassRate)
}

func TestNextDueDateFailedIsImmediate(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, f := range []Frequency{FrequencyMonthly, FrequencySixMonthly, FrequencyFiveYearly} {
		assert.Equal(t, testDate, NextDueDate(testDate, f, OutcomeFail))
	}
}

func TestNextDueDateByFrequency(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency Frequency
		expected  time.Time
	}{
		{FrequencyMonthly, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyThreeMonthly, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencySixMonthly, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyTwelveMonthly, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyTwentyFourMonthly, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyFiveYearly, time.Date(2029, 1, 15, 0, 0, 0, 0, time.UTC)},
		{Frequency("weekly"), time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, NextDueDate(testDate, tc.frequency, OutcomePass), string(tc.frequency))
	}
}

func TestSortResultsByAssetNumber(t *testing.T) {
	results := []TestResult{
		{AssetNumber: "10001"},
		{AssetNumber: "2"},
		{AssetNumber: "1"},
	}
	SortResultsByAssetNumber(results)
	assert.Equal(t, "1", results[0].AssetNumber)
	assert.Equal(t, "2", results[1].AssetNumber)
	assert.Equal(t, "10001", results[2].AssetNumber)
}

func TestSortResultsNonNumericFirst(t *testing.T) {
	results := []TestResult{
		{AssetNumber: "5"},
		{AssetNumber: "n/a"},
	}
	SortResultsByAssetNumber(results)
	assert.Equal(t, "n/a", results[0].AssetNumber)
}

func TestFrequencyBands(t *testing.T) {
	assert.Equal(t, 1, FrequencyMonthly.BandStart())
	assert.Equal(t, 1, FrequencyTwentyFourMonthly.BandStart())
	assert.Equal(t, 10000, FrequencyFiveYearly.BandStart())

	assert.True(t, FrequencyMonthly.InBand(42))
	assert.False(t, FrequencyMonthly.InBand(10005))
	assert.True(t, FrequencyFiveYearly.InBand(10001))
	assert.False(t, FrequencyFiveYearly.InBand(42))
}

func TestParseAssetNumber(t *testing.T) {
	n, ok := ParseAssetNumber("123")
	assert.True(t, ok)
	assert.Equal(t, 123, n)

	_, ok = ParseAssetNumber("abc")
	assert.False(t, ok)
	_, ok = ParseAssetNumber("0")
	assert.False(t, ok)
	_, ok = ParseAssetNumber("-4")
	assert.False(t, ok)
}

func TestCanonicalAssetNumber(t *testing.T) {
	n, ok := CanonicalAssetNumber("7")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	// ParseAssetNumber tolerates these for legacy rows; canonical form
	// does not, so they cannot be stored as new tags.
	_, ok = CanonicalAssetNumber("007")
	assert.False(t, ok)
	_, ok = CanonicalAssetNumber("+7")
	assert.False(t, ok)
	_, ok = CanonicalAssetNumber("abc")
	assert.False(t, ok)
}

func TestPermissionsFor(t *testing.T) {
	tech := PermissionsFor(RoleTechnician)
	assert.True(t, tech.Has(PermSessionsOwn))
	assert.False(t, tech.Has(PermSessionsAll))
	assert.False(t, tech.Has(PermUsersManage))

	support := PermissionsFor(RoleSupportCenter)
	assert.True(t, support.Has(PermSessionsAll))
	assert.True(t, support.Has(PermUsersRead))
	assert.False(t, support.Has(PermUsersManage))

	admin := PermissionsFor(RoleSuperAdmin)
	assert.True(t, admin.Has(PermUsersManage))
	assert.True(t, admin.Has(PermFormTypesManage))
}
