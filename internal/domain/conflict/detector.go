package conflict

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
	"github.com/corourke/gigmanager/pkg/metrics"
)

// Check names, used in error messages and metric labels.
const (
	opStaff     = "check staff conflicts"
	opVenue     = "check venue conflicts"
	opEquipment = "check equipment conflicts"
	opBatch     = "check conflicts for gigs"
)

// Detector answers conflict questions against a Source. It holds no state
// between calls and is safe for concurrent use.
type Detector struct {
	source Source
	logger logger.Logger
	now    func() time.Time
}

// New creates a Detector reading from source.
func New(source Source, opts ...Option) *Detector {
	d := &Detector{source: source, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.NamedOrDiscard("conflict")
	}
	return d
}

// CheckAllConflicts runs the staff, venue and equipment checks concurrently
// and concatenates their results in that order. Any failing check fails the
// whole call.
func (d *Detector) CheckAllConflicts(ctx context.Context, s Subject) (Result, error) {
	start := d.now()
	var staff, venue, equipment Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		staff, err = d.CheckStaffConflicts(gctx, s)
		return err
	})
	g.Go(func() (err error) {
		venue, err = d.CheckVenueConflicts(gctx, s)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = d.CheckEquipmentConflicts(gctx, s)
		return err
	})
	err := g.Wait()

	metrics.RecordConflictCheckLatency("single", float64(d.now().Sub(start).Milliseconds()))
	if err != nil {
		metrics.RecordConflictCheck("single", outcome(err))
		return Result{}, err
	}

	res := mergeResults(staff, venue, equipment)
	metrics.RecordConflictCheck("single", "ok")
	recordFound(res.Conflicts)
	recordFound(res.Warnings)

	d.logger.Debug(ctx, "conflict check finished",
		logger.String("gig_id", s.GigID),
		logger.Int("conflicts", len(res.Conflicts)),
		logger.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// CheckStaffConflicts finds other gigs that share a staff member with the
// subject near its time range.
func (d *Detector) CheckStaffConflicts(ctx context.Context, s Subject) (Result, error) {
	res := newResult()
	if s.Status == model.StatusCancelled {
		return res, nil
	}

	assigned, err := d.source.StaffAssignments(ctx, []string{s.GigID})
	if err != nil {
		return Result{}, d.fail(ctx, opStaff, s.GigID, err)
	}
	held := make(map[string]struct{}, len(assigned))
	userIDs := make([]string, 0, len(assigned))
	for _, a := range assigned {
		if _, ok := held[a.UserID]; ok || a.UserID == "" {
			continue
		}
		held[a.UserID] = struct{}{}
		userIDs = append(userIDs, a.UserID)
	}
	if len(userIDs) == 0 {
		return res, nil
	}

	cur := effectiveSpan(s.Start, s.End, s.Timezone)
	rows, err := d.source.StaffCandidates(ctx, candidateWindow(s.GigID, cur), userIDs)
	if err != nil {
		return Result{}, d.fail(ctx, opStaff, s.GigID, err)
	}

	for _, grp := range groupByGig(rows, func(c StaffCandidate) model.Gig { return c.Gig }, s.GigID) {
		level, ok := classifyGig(cur, grp.gig)
		if !ok {
			continue
		}
		var staff []StaffRef
		seen := make(map[string]struct{})
		for _, c := range grp.items {
			uid := c.Assignment.UserID
			if _, ok := held[uid]; !ok {
				continue
			}
			if _, dup := seen[uid]; dup {
				continue
			}
			seen[uid] = struct{}{}
			staff = append(staff, StaffRef{UserID: uid, Name: c.Assignment.DisplayName()})
		}
		if len(staff) == 0 {
			continue
		}
		res.add(record(level, TypeStaff, grp.gig, Details{ConflictingStaff: staff}))
	}
	return res, nil
}

// CheckVenueConflicts finds other gigs booked with the same venue or act
// organization. Each matching participant yields its own record.
func (d *Detector) CheckVenueConflicts(ctx context.Context, s Subject) (Result, error) {
	res := newResult()
	if s.Status == model.StatusCancelled {
		return res, nil
	}

	parts, err := d.source.Participants(ctx, []string{s.GigID})
	if err != nil {
		return Result{}, d.fail(ctx, opVenue, s.GigID, err)
	}
	held := make(map[string]struct{}, len(parts))
	orgIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		if !p.Role.IsConflictRole() || p.OrganizationID == "" {
			continue
		}
		if _, ok := held[p.OrganizationID]; ok {
			continue
		}
		held[p.OrganizationID] = struct{}{}
		orgIDs = append(orgIDs, p.OrganizationID)
	}
	if len(orgIDs) == 0 {
		return res, nil
	}

	cur := effectiveSpan(s.Start, s.End, s.Timezone)
	rows, err := d.source.ParticipantCandidates(ctx, candidateWindow(s.GigID, cur), orgIDs)
	if err != nil {
		return Result{}, d.fail(ctx, opVenue, s.GigID, err)
	}

	for _, grp := range groupByGig(rows, func(c ParticipantCandidate) model.Gig { return c.Gig }, s.GigID) {
		level, ok := classifyGig(cur, grp.gig)
		if !ok {
			continue
		}
		for _, c := range grp.items {
			p := c.Participant
			if !p.Role.IsConflictRole() {
				continue
			}
			if _, ok := held[p.OrganizationID]; !ok {
				continue
			}
			res.add(record(level, TypeVenue, grp.gig, Details{
				VenueID:   p.OrganizationID,
				VenueName: p.OrganizationName,
				Role:      p.Role,
			}))
		}
	}
	return res, nil
}

// CheckEquipmentConflicts finds other gigs using one of the subject's kits.
// All shared kits on one candidate are merged into a single record.
func (d *Detector) CheckEquipmentConflicts(ctx context.Context, s Subject) (Result, error) {
	res := newResult()
	if s.Status == model.StatusCancelled {
		return res, nil
	}

	kits, err := d.source.KitAssignments(ctx, []string{s.GigID})
	if err != nil {
		return Result{}, d.fail(ctx, opEquipment, s.GigID, err)
	}
	held := make(map[string]struct{}, len(kits))
	kitIDs := make([]string, 0, len(kits))
	for _, k := range kits {
		if _, ok := held[k.KitID]; ok || k.KitID == "" {
			continue
		}
		held[k.KitID] = struct{}{}
		kitIDs = append(kitIDs, k.KitID)
	}
	if len(kitIDs) == 0 {
		return res, nil
	}

	cur := effectiveSpan(s.Start, s.End, s.Timezone)
	rows, err := d.source.KitCandidates(ctx, candidateWindow(s.GigID, cur), kitIDs)
	if err != nil {
		return Result{}, d.fail(ctx, opEquipment, s.GigID, err)
	}

	for _, grp := range groupByGig(rows, func(c KitCandidate) model.Gig { return c.Gig }, s.GigID) {
		level, ok := classifyGig(cur, grp.gig)
		if !ok {
			continue
		}
		var refs []KitRef
		seen := make(map[string]struct{})
		for _, c := range grp.items {
			if _, ok := held[c.Kit.KitID]; !ok {
				continue
			}
			if _, dup := seen[c.Kit.KitID]; dup {
				continue
			}
			seen[c.Kit.KitID] = struct{}{}
			assets := c.Kit.AssetLabels
			if assets == nil {
				assets = []string{}
			}
			refs = append(refs, KitRef{KitID: c.Kit.KitID, KitName: c.Kit.KitName, Assets: assets})
		}
		if len(refs) == 0 {
			continue
		}
		res.add(record(level, TypeEquipment, grp.gig, Details{ConflictingKits: refs}))
	}
	return res, nil
}

// fail logs a store failure and labels it for the caller.
func (d *Detector) fail(ctx context.Context, op, gigID string, err error) error {
	kind := "query"
	if IsNetworkError(err) {
		kind = "network"
	}
	metrics.RecordStoreQueryError(op, kind)
	d.logger.Error(ctx, "conflict check failed",
		logger.String("op", op),
		logger.String("gig_id", gigID),
		logger.String("kind", kind),
		logger.Error(err),
	)
	if kind == "network" {
		return &NetworkError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classifyGig(cur span, g model.Gig) (Level, bool) {
	other := effectiveSpan(g.Start, g.End, g.Timezone)
	return Classify(cur.start, cur.end, other.start, other.end)
}

func record(level Level, typ Type, g model.Gig, details Details) Conflict {
	return Conflict{
		Level:    level,
		Type:     typ,
		GigID:    g.ID,
		GigTitle: g.Title,
		Start:    g.Start,
		End:      g.End,
		Details:  details,
	}
}

type gigGroup[T any] struct {
	gig   model.Gig
	items []T
}

// groupByGig groups candidate rows by gig in first-seen order, dropping the
// subject and cancelled gigs.
func groupByGig[T any](rows []T, gigOf func(T) model.Gig, excludeID string) []gigGroup[T] {
	idx := make(map[string]int)
	var out []gigGroup[T]
	for _, r := range rows {
		g := gigOf(r)
		if g.ID == excludeID || g.IsCancelled() {
			continue
		}
		i, ok := idx[g.ID]
		if !ok {
			i = len(out)
			idx[g.ID] = i
			out = append(out, gigGroup[T]{gig: g})
		}
		out[i].items = append(out[i].items, r)
	}
	return out
}

func outcome(err error) string {
	if IsNetworkError(err) {
		return "network_error"
	}
	return "error"
}

func recordFound(cs []Conflict) {
	counts := make(map[[2]string]int)
	for _, c := range cs {
		counts[[2]string{string(c.Type), string(c.Level)}]++
	}
	for k, n := range counts {
		metrics.RecordConflictsFound(k[0], k[1], n)
	}
}
