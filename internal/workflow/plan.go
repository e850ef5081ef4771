package workflow

import (
	"fmt"
	"os"

	"lectern/internal/workspace"
)

// ClassPlan lists what a run would process for one class without touching
// anything.
type ClassPlan struct {
	Class       string
	SkipReason  string
	Audio       []string
	Transcripts []string
	Readings    []string
}

// Empty reports whether the class has no pending work.
func (p ClassPlan) Empty() bool {
	return len(p.Audio) == 0 && len(p.Transcripts) == 0 && len(p.Readings) == 0
}

// Plan inspects every class root and returns the pending work per class. It
// never creates directories or moves files, so it is safe for dry runs.
func Plan(classRoots []string) []ClassPlan {
	plans := make([]ClassPlan, 0, len(classRoots))
	for _, root := range classRoots {
		ws := workspace.Resolve(root)
		plan := ClassPlan{Class: ws.Class}

		if info, err := os.Stat(root); err != nil {
			plan.SkipReason = fmt.Sprintf("class folder missing: %v", err)
			plans = append(plans, plan)
			continue
		} else if !info.IsDir() {
			plan.SkipReason = fmt.Sprintf("class folder %s is not a directory", root)
			plans = append(plans, plan)
			continue
		}

		plan.Audio, _ = ws.PendingAudio()
		plan.Transcripts, _ = ws.PendingTranscripts()
		plan.Readings, _ = ws.PendingReadings()
		plans = append(plans, plan)
	}
	return plans
}
