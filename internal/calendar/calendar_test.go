package calendar

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var start = time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)

func TestToCalendarEmpty(t *testing.T) {
	entries := ToCalendar(nil, start, DefaultPlatforms)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestToCalendar(t *testing.T) {
	topics := []string{"a", "b", "c", "d", "e"}
	entries := ToCalendar(topics, start, DefaultPlatforms)
	require.Len(t, entries, len(topics))

	for i, e := range entries {
		assert.Equal(t, topics[i], e.Topic)
		assert.Equal(t, DefaultPlatforms[i%2], e.Platform)
		if i > 0 {
			assert.True(t, e.Date.After(entries[i-1].Date), "dates strictly increase")
		}
	}
	assert.Equal(t, "抖音", entries[0].Platform)
	assert.Equal(t, "小红书", entries[1].Platform)
	assert.Equal(t, "2026-10-20", entries[4].Date.Format(DateLayout))
}

func TestToCalendarKeepsDuplicates(t *testing.T) {
	entries := ToCalendar([]string{"x", "x"}, start, [2]string{"A", "B"})
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[1].Platform)
}

func TestPlatformSpec(t *testing.T) {
	got, err := PlatformSpec([]string{"早八通勤妆"}, "抖音")
	require.NoError(t, err)
	assert.Equal(t, []string{"早八通勤妆 [带争议点]"}, got)

	got, err = PlatformSpec([]string{"平价防晒"}, "小红书")
	require.NoError(t, err)
	assert.Equal(t, []string{"平价防晒 [体验分享]"}, got)

	_, err = PlatformSpec([]string{"x"}, "视频号")
	assert.Error(t, err)
	assert.Equal(t, []string{"小红书", "抖音"}, Platforms())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ToCalendar([]string{"选题一", "选题, 二"}, start, DefaultPlatforms)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"日期", "选题", "平台"},
		{"2026-10-16", "选题一", "抖音"},
		{"2026-10-17", "选题, 二", "小红书"},
	}, records)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ToCalendar([]string{"选题<一>"}, start, DefaultPlatforms)))
	assert.Contains(t, buf.String(), "选题<一>", "UTF-8 and HTML characters are not escaped")

	var records []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	assert.Equal(t, []map[string]string{{"日期": "2026-10-16", "选题": "选题<一>", "平台": "抖音"}}, records)
}

func TestExportWritesAllFormats(t *testing.T) {
	dir := t.TempDir()
	entries := ToCalendar([]string{"一", "二"}, start, DefaultPlatforms)

	paths, err := Export(dir, entries, []string{"csv", "xlsx", "json"})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "content_calendar.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"日期", "选题", "平台"},
		{"2026-10-16", "一", "抖音"},
		{"2026-10-17", "二", "小红书"},
	}, rows)
}

func TestExportRejectsUnknownFormatFirst(t *testing.T) {
	dir := t.TempDir()
	_, err := Export(dir, nil, []string{"csv", "pdf"})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "content_calendar.csv"))
	assert.True(t, os.IsNotExist(statErr))
}
