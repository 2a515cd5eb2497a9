package report

import (
	"sort"
	"time"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/risk"
)

// Build assembles the drift report from the match partitions and the
// classified per-entity diffs. Matched entities with zero diffs are still
// recorded as in sync so the report totals reconcile:
//
//	matched + declaredOnly = totalDeclared
//	matched + liveOnly     = totalLive
func Build(
	resourceGroup string,
	match domain.MatchResult,
	diffsByEntity map[domain.EntityID][]domain.PropertyDiff,
	classifier *risk.Classifier,
	diagnostics []domain.Diagnostic,
) domain.DriftReport {
	rep := domain.DriftReport{
		ResourceGroup: resourceGroup,
		GeneratedAt:   time.Now().UTC(),
		Diagnostics:   diagnostics,
	}
	rep.Counts.TotalDeclared = match.TotalDeclared()
	rep.Counts.TotalLive = match.TotalLive()
	rep.Counts.Matched = len(match.Matched)

	for _, pair := range match.Matched {
		id := pair.Declared.ID()
		diffs, aggregate := classifier.ClassifyDiffs(id.Kind, diffsByEntity[id])

		entity := domain.EntityDrift{
			ID:             id,
			Kind:           id.Kind,
			Name:           pair.Declared.Name(),
			Region:         pair.Live.Region(),
			SourceLocation: pair.Declared.Location(),
			Diffs:          diffs,
			Risk:           aggregate,
		}
		if len(diffs) == 0 {
			entity.Status = domain.StatusInSync
			rep.Counts.InSync++
		} else {
			entity.Status = domain.StatusDrifted
			rep.Counts.Drifted++
			for _, diff := range diffs {
				rep.Summary.Add(diff.Risk, 1)
			}
		}
		rep.Entities = append(rep.Entities, entity)
	}

	for _, e := range match.DeclaredOnly {
		level := classifier.ClassifyMissing(e.Kind())
		rep.Entities = append(rep.Entities, domain.EntityDrift{
			ID:             e.ID(),
			Kind:           e.Kind(),
			Name:           e.Name(),
			Status:         domain.StatusMissingInLive,
			SourceLocation: e.Location(),
			Risk:           level,
		})
		rep.Counts.MissingInLive++
		rep.Summary.Add(level, 1)
	}

	for _, e := range match.LiveOnly {
		level := classifier.ClassifyUnmanaged(e.Kind())
		rep.Entities = append(rep.Entities, domain.EntityDrift{
			ID:     e.ID(),
			Kind:   e.Kind(),
			Name:   e.Name(),
			Status: domain.StatusUnmanaged,
			Region: e.Region(),
			Risk:   level,
		})
		rep.Counts.Unmanaged++
		rep.Summary.Add(level, 1)
	}

	sort.SliceStable(rep.Entities, func(i, j int) bool {
		if rep.Entities[i].Kind != rep.Entities[j].Kind {
			return rep.Entities[i].Kind < rep.Entities[j].Kind
		}
		return rep.Entities[i].ID.Name < rep.Entities[j].ID.Name
	})
	return rep
}
