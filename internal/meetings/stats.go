package meetings

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/meetingmind/meetingmind/internal/db"
)

// Stats are the dashboard numbers. Time and count cover the trailing month;
// open tasks and the action-plan percentage cover everything stored.
type Stats struct {
	TotalDuration time.Duration
	MeetingCount  int
	OpenTaskCount int
	// ActionPlanPct is the share of summarized meetings whose minutes
	// carried at least one action item, rounded to whole percent.
	ActionPlanPct int
	OpenTasks     []db.ActionItem
}

// Stats computes the dashboard numbers as of now.
func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ActionItems(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.Summaries(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{}

	monthAgo := now.AddDate(0, -1, 0)
	for _, m := range meetings {
		if m.StartedAt.Before(monthAgo) {
			continue
		}
		st.MeetingCount++
		st.TotalDuration += time.Duration(m.DurationMS) * time.Millisecond
	}

	for _, it := range items {
		if it.Status != db.TaskDone {
			st.OpenTasks = append(st.OpenTasks, it)
		}
	}
	st.OpenTaskCount = len(st.OpenTasks)

	if len(summaries) > 0 {
		withPlan := 0
		for _, sum := range summaries {
			var probe struct {
				ActionPlan []json.RawMessage `json:"action_plan"`
			}
			if err := json.Unmarshal([]byte(sum.Data), &probe); err != nil {
				continue
			}
			if len(probe.ActionPlan) > 0 {
				withPlan++
			}
		}
		st.ActionPlanPct = int(math.Round(float64(withPlan) / float64(len(summaries)) * 100))
	}

	return st, nil
}
