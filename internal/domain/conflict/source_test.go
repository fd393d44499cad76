package conflict_test

import (
	"context"
	"io"
	"sync"

	conflict "github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

// fakeSource serves canned rows and counts every call by method name.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	staff map[string][]model.StaffAssignment
	parts map[string][]model.ParticipantAssignment
	kits  map[string][]model.KitAssignment

	staffCands []conflict.StaffCandidate
	partCands  []conflict.ParticipantCandidate
	kitCands   []conflict.KitCandidate

	lastWindow conflict.Window
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls: map[string]int{},
		errs:  map[string]error{},
		staff: map[string][]model.StaffAssignment{},
		parts: map[string][]model.ParticipantAssignment{},
		kits:  map[string][]model.KitAssignment{},
	}
}

func (f *fakeSource) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeSource) StaffAssignments(_ context.Context, gigIDs []string) ([]model.StaffAssignment, error) {
	if err := f.hit("StaffAssignments"); err != nil {
		return nil, err
	}
	var out []model.StaffAssignment
	for _, id := range gigIDs {
		out = append(out, f.staff[id]...)
	}
	return out, nil
}

func (f *fakeSource) Participants(_ context.Context, gigIDs []string) ([]model.ParticipantAssignment, error) {
	if err := f.hit("Participants"); err != nil {
		return nil, err
	}
	var out []model.ParticipantAssignment
	for _, id := range gigIDs {
		out = append(out, f.parts[id]...)
	}
	return out, nil
}

func (f *fakeSource) KitAssignments(_ context.Context, gigIDs []string) ([]model.KitAssignment, error) {
	if err := f.hit("KitAssignments"); err != nil {
		return nil, err
	}
	var out []model.KitAssignment
	for _, id := range gigIDs {
		out = append(out, f.kits[id]...)
	}
	return out, nil
}

func (f *fakeSource) StaffCandidates(_ context.Context, w conflict.Window, _ []string) ([]conflict.StaffCandidate, error) {
	if err := f.hit("StaffCandidates"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastWindow = w
	f.mu.Unlock()
	return f.staffCands, nil
}

func (f *fakeSource) ParticipantCandidates(_ context.Context, _ conflict.Window, _ []string) ([]conflict.ParticipantCandidate, error) {
	if err := f.hit("ParticipantCandidates"); err != nil {
		return nil, err
	}
	return f.partCands, nil
}

func (f *fakeSource) KitCandidates(_ context.Context, _ conflict.Window, _ []string) ([]conflict.KitCandidate, error) {
	if err := f.hit("KitCandidates"); err != nil {
		return nil, err
	}
	return f.kitCands, nil
}

func gig(id, start, end string) model.Gig {
	return model.Gig{ID: id, Title: "Gig " + id, Start: ts(start), End: ts(end), Status: model.StatusBooked}
}

func staffOn(gigID, userID, first, last string) model.StaffAssignment {
	return model.StaffAssignment{GigID: gigID, SlotID: "slot-" + gigID, UserID: userID, FirstName: first, LastName: last, Status: "Confirmed"}
}
