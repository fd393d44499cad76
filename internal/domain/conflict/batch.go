package conflict

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/corourke/gigmanager/internal/domain/dedupe"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
	"github.com/corourke/gigmanager/pkg/metrics"
)

// batchHolders are the resource holders of every gig in a batch, keyed by gig id.
type batchHolders struct {
	staff map[string][]model.StaffAssignment
	parts map[string][]model.ParticipantAssignment
	kits  map[string][]model.KitAssignment
}

// CheckAllConflictsForGigs detects hard conflicts among the given gigs using
// three bulk reads. Each conflicting pair yields one record per side and per
// dimension. Read failures are logged and produce an empty list.
func (d *Detector) CheckAllConflictsForGigs(ctx context.Context, gigs []model.Gig) []Conflict {
	start := d.now()
	defer func() {
		metrics.RecordConflictCheckLatency("batch", float64(d.now().Sub(start).Milliseconds()))
	}()

	active := activeGigs(gigs)
	if len(active) == 0 {
		metrics.RecordConflictCheck("batch", "empty")
		return []Conflict{}
	}

	holders, err := d.loadHolders(ctx, active)
	if err != nil {
		metrics.RecordConflictCheck("batch", outcome(err))
		d.logger.Error(ctx, "batch conflict check failed",
			logger.String("op", opBatch),
			logger.Int("gigs", len(active)),
			logger.Error(err),
		)
		return []Conflict{}
	}

	spans := make([]span, len(active))
	for i, g := range active {
		spans[i] = effectiveSpan(g.Start, g.End, g.Timezone)
	}

	seen := dedupe.NewSet()
	out := []Conflict{}
	emit := func(c Conflict) {
		key := dedupe.Key(string(c.Type), c.GigID, c.Details.OtherGigID, c.Details.VenueID)
		if seen.SeenAndRecord(key) {
			return
		}
		out = append(out, c)
	}

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if !Overlaps(spans[i].start, spans[i].end, spans[j].start, spans[j].end) {
				continue
			}
			a, b := active[i], active[j]

			if staff := sharedStaff(holders.staff[a.ID], holders.staff[b.ID]); len(staff) > 0 {
				emit(pairRecord(TypeStaff, a, b, Details{ConflictingStaff: staff}))
				emit(pairRecord(TypeStaff, b, a, Details{ConflictingStaff: staff}))
			}

			aOrgs := orgSet(holders.parts[a.ID])
			for _, p := range holders.parts[b.ID] {
				if _, ok := aOrgs[p.OrganizationID]; !ok {
					continue
				}
				details := Details{VenueID: p.OrganizationID, VenueName: p.OrganizationName, Role: p.Role}
				emit(pairRecord(TypeVenue, b, a, details))
				emit(pairRecord(TypeVenue, a, b, details))
			}

			if kits := sharedKits(holders.kits[a.ID], holders.kits[b.ID]); len(kits) > 0 {
				emit(pairRecord(TypeEquipment, a, b, Details{ConflictingKitIDs: kits}))
				emit(pairRecord(TypeEquipment, b, a, Details{ConflictingKitIDs: kits}))
			}
		}
	}

	metrics.RecordConflictCheck("batch", "ok")
	recordFound(out)
	d.logger.Debug(ctx, "batch conflict check finished",
		logger.Int("gigs", len(active)),
		logger.Int("conflicts", len(out)),
	)
	return out
}

// loadHolders issues the three bulk reads concurrently.
func (d *Detector) loadHolders(ctx context.Context, gigs []model.Gig) (batchHolders, error) {
	ids := make([]string, len(gigs))
	for i, g := range gigs {
		ids[i] = g.ID
	}

	var (
		staff []model.StaffAssignment
		parts []model.ParticipantAssignment
		kits  []model.KitAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		staff, err = d.source.StaffAssignments(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		parts, err = d.source.Participants(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		kits, err = d.source.KitAssignments(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return batchHolders{}, err
	}

	h := batchHolders{
		staff: make(map[string][]model.StaffAssignment),
		parts: make(map[string][]model.ParticipantAssignment),
		kits:  make(map[string][]model.KitAssignment),
	}
	for _, a := range staff {
		h.staff[a.GigID] = append(h.staff[a.GigID], a)
	}
	for _, p := range parts {
		if p.Role.IsConflictRole() {
			h.parts[p.GigID] = append(h.parts[p.GigID], p)
		}
	}
	for _, k := range kits {
		h.kits[k.GigID] = append(h.kits[k.GigID], k)
	}
	return h, nil
}

// activeGigs drops cancelled gigs and repeated ids, keeping input order.
func activeGigs(gigs []model.Gig) []model.Gig {
	out := make([]model.Gig, 0, len(gigs))
	seen := make(map[string]struct{}, len(gigs))
	for _, g := range gigs {
		if g.IsCancelled() {
			continue
		}
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	return out
}

// sharedStaff lists a's staff that also work b, one entry per user, named as on a.
// Rows without a user id are ignored.
func sharedStaff(a, b []model.StaffAssignment) []StaffRef {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		if s.UserID != "" {
			inB[s.UserID] = struct{}{}
		}
	}
	var out []StaffRef
	seen := make(map[string]struct{})
	for _, s := range a {
		if _, ok := inB[s.UserID]; !ok {
			continue
		}
		if _, dup := seen[s.UserID]; dup {
			continue
		}
		seen[s.UserID] = struct{}{}
		out = append(out, StaffRef{UserID: s.UserID, Name: s.DisplayName()})
	}
	return out
}

func sharedKits(a, b []model.KitAssignment) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, k := range b {
		if k.KitID != "" {
			inB[k.KitID] = struct{}{}
		}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, k := range a {
		if _, ok := inB[k.KitID]; !ok {
			continue
		}
		if _, dup := seen[k.KitID]; dup {
			continue
		}
		seen[k.KitID] = struct{}{}
		out = append(out, k.KitID)
	}
	return out
}

func orgSet(parts []model.ParticipantAssignment) map[string]struct{} {
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if p.OrganizationID != "" {
			set[p.OrganizationID] = struct{}{}
		}
	}
	return set
}

// pairRecord attaches a hard conflict to on, referencing other.
func pairRecord(typ Type, on, other model.Gig, details Details) Conflict {
	details.OtherGigID = other.ID
	details.OtherGigTitle = other.Title
	return record(LevelConflict, typ, on, details)
}
