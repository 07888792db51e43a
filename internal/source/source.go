// Package source supplies per-user activity lists to the scoring core.
package source

import (
	"cmp"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// ErrUserNotFound is returned when no activity file exists for a user.
var ErrUserNotFound = errors.New("user not found")

// Supported activity file extensions, in lookup order.
const (
	jsonExt = ".json"
	csvExt  = ".csv"
)

// csvHeader is the column order of activity CSV files.
var csvHeader = []string{"type", "timestamp", "source", "details", "durationMinutes", "jiraStatusCategoryKey"}

// FileSource reads activities from one file per user under a data directory.
// A user's file is either <user>.json holding an array of activities or <user>.csv.
type FileSource struct {
	Dir string
}

var (
	_ contract.ActivitySource = &FileSource{} // Compile-time check
	_ contract.UserLister     = &FileSource{} // Compile-time check
)

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// FetchActivities returns the user's activities with start <= timestamp <= end, oldest first.
// Callers trim the end bound to their exact window.
func (s *FileSource) FetchActivities(ctx context.Context, userID string, start, end time.Time) ([]schema.ActivityItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return schema.SortActivities(schema.FilterWindow(items, start, end, true)), nil
}

// Users lists every user that has an activity file, sorted by id.
func (s *FileSource) Users(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", s.Dir, err)
	}

	var users []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != jsonExt && ext != csvExt {
			continue
		}
		user := strings.TrimSuffix(e.Name(), ext)
		if !slices.Contains(users, user) {
			users = append(users, user)
		}
	}
	slices.SortFunc(users, cmp.Compare[string])
	return users, nil
}

// load reads and validates every activity in the user's file.
func (s *FileSource) load(userID string) ([]schema.ActivityItem, error) {
	id, err := contract.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	for _, ext := range []string{jsonExt, csvExt} {
		path := filepath.Join(s.Dir, id+ext)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		var items []schema.ActivityItem
		if ext == jsonExt {
			items, err = DecodeJSON(f)
		} else {
			items, err = DecodeCSV(f)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// DecodeJSON parses a JSON array of activities and validates each one.
func DecodeJSON(r io.Reader) ([]schema.ActivityItem, error) {
	var items []schema.ActivityItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, contract.NewInvalidInput("malformed activity JSON", err)
	}
	if err := validateAll(items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeCSV parses activities from CSV with the standard header row.
func DecodeCSV(r io.Reader) ([]schema.ActivityItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []schema.ActivityItem{}, nil
	}
	if err != nil {
		return nil, contract.NewInvalidInput("malformed activity CSV header", err)
	}
	for i, col := range csvHeader {
		if strings.TrimSpace(header[i]) != col {
			return nil, contract.NewInvalidInputf("unexpected CSV column %q at position %d, want %q", header[i], i+1, col)
		}
	}

	items := []schema.ActivityItem{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, contract.NewInvalidInput(fmt.Sprintf("malformed activity CSV at line %d", line), err)
		}
		item, err := parseCSVRecord(record)
		if err != nil {
			return nil, contract.NewInvalidInput(fmt.Sprintf("invalid activity at line %d", line), err)
		}
		items = append(items, item)
	}
	if err := validateAll(items); err != nil {
		return nil, err
	}
	return items, nil
}

// parseCSVRecord converts one CSV row into an activity.
func parseCSVRecord(record []string) (schema.ActivityItem, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[1]))
	if err != nil {
		return schema.ActivityItem{}, fmt.Errorf("invalid timestamp %q: %w", record[1], err)
	}
	item := schema.ActivityItem{
		Type:      strings.TrimSpace(record[0]),
		Timestamp: ts,
		Source:    schema.Source(strings.TrimSpace(record[2])),
		Details:   record[3],
	}
	if raw := strings.TrimSpace(record[4]); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return schema.ActivityItem{}, fmt.Errorf("invalid durationMinutes %q: %w", raw, err)
		}
		item.DurationMinutes = &d
	}
	if raw := strings.TrimSpace(record[5]); raw != "" {
		status := schema.StatusCategory(raw)
		item.JiraStatusCategoryKey = &status
	}
	return item, nil
}

func validateAll(items []schema.ActivityItem) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return contract.NewInvalidInput(fmt.Sprintf("invalid activity at index %d", i), err)
		}
	}
	return nil
}
