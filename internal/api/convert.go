package api

import (
	"time"

	"pressline/internal/queue"
	"pressline/internal/stage"
	"pressline/internal/workflow"
)

// FromQueueItem converts a work item to its API representation.
func FromQueueItem(item *queue.Item) Item {
	if item == nil {
		return Item{}
	}
	dto := Item{
		ID:         item.ID,
		SourceURL:  item.SourceURL,
		Title:      item.Title,
		SourceName: item.SourceName,
		Status:     string(item.Status),
		Failed:     item.Status.IsFailed(),
		LastError:  item.LastError,
		RawRef:     item.RawRef,
		CleanedRef: item.CleanedRef,
		PostRef:    item.PostRef,
	}
	dto.PublishedAt = formatTime(item.PublishedAt)
	dto.CreatedAt = formatTime(item.CreatedAt)
	dto.UpdatedAt = formatTime(item.UpdatedAt)
	return dto
}

// FromQueueItems converts a slice of work items into API DTOs.
func FromQueueItems(items []*queue.Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// MergeQueueStats converts status counts into a map keyed by status name
// with every status present, so consumers see zeroes rather than gaps.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromReport converts a stage report.
func FromReport(r stage.Report) StageReport {
	return StageReport{
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Soft:       r.Soft,
		Skipped:    r.Skipped,
		Note:       r.Note,
		DurationMS: r.Duration().Milliseconds(),
	}
}

// FromStatusSummary converts the workflow status into its API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	out := WorkflowStatus{
		Running:    summary.Running,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
		Stages:     make([]StageStatus, 0, len(summary.Stages)),
	}
	if c := summary.LastCycle; c != nil {
		out.LastCycle = &CycleStatus{
			ID:          c.ID,
			Started:     formatTime(c.Started),
			Finished:    formatTime(c.Finished),
			Succeeded:   c.Succeeded,
			Failed:      c.Failed,
			Errors:      c.Errors,
			Interrupted: c.Interrupted,
		}
	}
	for _, st := range summary.Stages {
		view := StageStatus{
			Name:      st.Name,
			Ready:     st.Health.Ready,
			Detail:    st.Health.Detail,
			LastRun:   formatTime(st.LastRun),
			LastError: st.LastError,
		}
		if st.LastReport != nil {
			r := FromReport(*st.LastReport)
			view.LastReport = &r
		}
		out.Stages = append(out.Stages, view)
	}
	return out
}

// FromHealth converts stage health checks, keeping stage order.
func FromHealth(health []stage.Health) HealthResponse {
	resp := HealthResponse{Ready: true, Stages: make([]StageHealth, 0, len(health))}
	for _, h := range health {
		resp.Stages = append(resp.Stages, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
		if !h.Ready {
			resp.Ready = false
		}
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
