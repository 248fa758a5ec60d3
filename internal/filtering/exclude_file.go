package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes job ids listed in a file,
// one id per line. Text after the id on a line is ignored.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	ids, err := readExcludedIDs(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	removed := c.Exclude(func(item *Candidate) bool {
		_, ok := ids[item.ID()]
		return ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding jobs based on exclude file",
			zap.String("path", f.path),
			zap.Int64s("excluded_jobs", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

func readExcludedIDs(path string) (map[int64]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]struct{}{}, nil
		}
		return nil, err
	}
	defer file.Close()

	ids := make(map[int64]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		field := strings.Fields(line)[0]
		id, err := strconv.ParseInt(strings.TrimRight(field, ",;"), 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ids, nil
}

// ExcludedJob is one line appended to an exclude file.
type ExcludedJob struct {
	ID         int64
	Title      string
	Company    string
	ExcludedAt time.Time
}

// AppendExcluded appends jobs to the exclude file, creating it if needed.
// Each line holds the id followed by a comment, so the file stays readable
// by readExcludedIDs.
func AppendExcluded(path string, jobs []ExcludedJob) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("exclude file is not configured")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, job := range jobs {
		fmt.Fprintf(w, "%d # %s @ %s, excluded at %s\n",
			job.ID, job.Title, job.Company, job.ExcludedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}
